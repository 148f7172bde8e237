package qc_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-lims/internal/order"
	"github.com/noah-isme/backend-lims/internal/qc"
	"github.com/noah-isme/backend-lims/internal/workflow"
)

func svc(id string) *order.Service { return &order.Service{ID: id, Keyword: id} }

func analysis(id, service, ws string) order.LineItem {
	return order.LineItem{ID: id, Service: svc(service), State: workflow.AnalysisAssigned, WorksheetID: ws}
}

func reference(id string, ref order.ReferenceType, originService string) order.LineItem {
	return order.LineItem{ID: id, Service: svc(originService), ReferenceType: ref, OriginServiceID: originService}
}

func duplicate(id, originOrder, originService string) order.LineItem {
	return order.LineItem{ID: id, Service: svc(originService), ReferenceType: order.RefDuplicate, OriginOrderID: originOrder, OriginServiceID: originService}
}

// fixture: AR-1 has cu and fe on WS-1, zn on WS-2 and pb on no worksheet.
func fixture() (order.Order, []order.Worksheet) {
	o := order.Order{ID: "AR-1", Items: []order.LineItem{
		analysis("ar1-cu", "cu", "WS-1"),
		analysis("ar1-fe", "fe", "WS-1"),
		analysis("ar1-zn", "zn", "WS-2"),
		analysis("ar1-pb", "pb", ""),
	}}
	ws1 := order.Worksheet{ID: "WS-1", Items: []order.LineItem{
		o.Items[0],
		o.Items[1],
		analysis("ar2-cu", "cu", "WS-1"),
		reference("b-cu", order.RefBlank, "cu"),
		reference("c-fe", order.RefControl, "fe"),
		reference("c-hg", order.RefControl, "hg"),
		duplicate("d-ar1-cu", "AR-1", "cu"),
		duplicate("d-ar2-cu", "AR-2", "cu"),
	}}
	ws2 := order.Worksheet{ID: "WS-2", Items: []order.LineItem{
		o.Items[2],
		reference("b-zn", order.RefBlank, "zn"),
		reference("c-cu-2", order.RefControl, "cu"),
		duplicate("d-ar1-zn", "AR-1", "zn"),
	}}
	return o, []order.Worksheet{ws1, ws2}
}

func ids(items []order.LineItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func TestAnalysesByType(t *testing.T) {
	o, worksheets := fixture()
	idx := qc.NewIndex(worksheets)

	require.Equal(t, []string{"b-cu", "b-zn"}, ids(qc.Analyses(o, idx, qc.TypeBlank)))
	require.Equal(t, []string{"c-fe", "c-cu-2"}, ids(qc.Analyses(o, idx, qc.TypeControl)))
	require.Equal(t, []string{"d-ar1-cu", "d-ar1-zn"}, ids(qc.Analyses(o, idx, qc.TypeDuplicate)))
	require.Equal(t,
		[]string{"b-cu", "c-fe", "d-ar1-cu", "b-zn", "c-cu-2", "d-ar1-zn"},
		ids(qc.Analyses(o, idx, qc.TypeAny)))
}

func TestAnyIsUnionOfTypes(t *testing.T) {
	o, worksheets := fixture()
	idx := qc.NewIndex(worksheets)

	union := map[string]struct{}{}
	for _, typ := range []qc.Type{qc.TypeBlank, qc.TypeControl, qc.TypeDuplicate} {
		for _, it := range qc.Analyses(o, idx, typ) {
			union[it.ID] = struct{}{}
		}
	}
	all := qc.Analyses(o, idx, qc.TypeAny)
	require.Len(t, all, len(union))
	for _, it := range all {
		require.Contains(t, union, it.ID)
	}
}

func TestAnalysesNeverRepeatItems(t *testing.T) {
	o, worksheets := fixture()
	// the same worksheet delivered twice and a QC item hosted on both sheets
	shared := reference("b-shared", order.RefBlank, "cu")
	worksheets[1].Items = append(worksheets[1].Items, shared)
	worksheets[0].Items = append(worksheets[0].Items, shared)
	worksheets = append(worksheets, worksheets[0])

	got := qc.Analyses(o, qc.NewIndex(worksheets), qc.TypeAny)
	unique := map[string]struct{}{}
	for _, it := range got {
		unique[it.ID] = struct{}{}
	}
	require.Len(t, got, len(unique))
	require.Contains(t, unique, "b-shared")
}

func TestAnalysesWithoutWorksheets(t *testing.T) {
	o, _ := fixture()
	require.Empty(t, qc.Analyses(o, qc.NewIndex(nil), qc.TypeAny))
	require.Empty(t, qc.Analyses(order.Order{ID: "AR-9"}, qc.NewIndex(nil), qc.TypeAny))
}

func TestHostFallsBackToItemReference(t *testing.T) {
	o := order.Order{ID: "AR-1", Items: []order.LineItem{analysis("x", "cu", "WS-9")}}
	ws := order.Worksheet{ID: "WS-9", Items: []order.LineItem{reference("b", order.RefBlank, "cu")}}
	got := qc.Analyses(o, qc.NewIndex([]order.Worksheet{ws}), qc.TypeBlank)
	require.Equal(t, []string{"b"}, ids(got))
}

func TestParseType(t *testing.T) {
	typ, err := qc.ParseType("")
	require.NoError(t, err)
	require.Equal(t, qc.TypeAny, typ)
	typ, err = qc.ParseType(" Duplicate ")
	require.NoError(t, err)
	require.Equal(t, qc.TypeDuplicate, typ)
	_, err = qc.ParseType("spike")
	require.Error(t, err)
}
