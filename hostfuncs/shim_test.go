package hostfuncs

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reglet-dev/sexpbridge/bridge"
	"github.com/reglet-dev/sexpbridge/domain/entities"
	"github.com/reglet-dev/sexpbridge/internal/testutil"
	"github.com/reglet-dev/sexpbridge/sexp"
	"github.com/reglet-dev/sexpbridge/wireformat"
)

type shimFixture struct {
	reg *HandlerRegistry
	rt  *sexp.Runtime
	out *bytes.Buffer
}

func newShimFixture(t *testing.T) *shimFixture {
	t.Helper()
	rt, err := sexp.New()
	require.NoError(t, err)

	var out bytes.Buffer
	adapter := bridge.NewAdapter(rt, bridge.WithPrinter(bridge.NewTextPrinter(&out)))
	reg, err := NewRegistry(
		WithMiddleware(PanicRecoveryMiddleware()),
		WithBundle(ShimBundle(adapter)),
		WithBundle(DiagnosticsBundle(rt)),
	)
	require.NoError(t, err)
	return &shimFixture{reg: reg, rt: rt, out: &out}
}

func (f *shimFixture) invoke(t *testing.T, name string, req, resp any) {
	t.Helper()
	payload, err := json.Marshal(req)
	require.NoError(t, err)
	raw, err := f.reg.Invoke(context.Background(), name, payload)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, resp), "response: %s", raw)
}

func TestShimBundle_Names(t *testing.T) {
	f := newShimFixture(t)
	assert.Equal(t, []string{
		"R_error", "R_gostring", "R_warning", "drain_warnings", "getListElementIndex", "print_sexp",
	}, f.reg.Names())
}

func TestShim_Warning(t *testing.T) {
	f := newShimFixture(t)

	var ack wireformat.AckWire
	f.invoke(t, WarningFunc, wireformat.MessageWire{Message: "mind the gap"}, &ack)
	assert.True(t, ack.OK)

	var drained wireformat.DiagnosticsWire
	f.invoke(t, DrainWarnsFunc, wireformat.DrainRequestWire{}, &drained)
	require.Len(t, drained.Warnings, 1)
	assert.Equal(t, "mind the gap", drained.Warnings[0].Message)
	assert.Equal(t, "warning", drained.Warnings[0].Severity)

	f.invoke(t, DrainWarnsFunc, wireformat.DrainRequestWire{}, &drained)
	assert.Empty(t, drained.Warnings, "draining clears the pending list")
}

func TestShim_Error_PropagatesThroughRecovery(t *testing.T) {
	f := newShimFixture(t)
	payload, err := json.Marshal(wireformat.MessageWire{Message: "fatal"})
	require.NoError(t, err)

	reached := false
	topErr := f.rt.TopLevel(func() {
		_, _ = f.reg.Invoke(context.Background(), ErrorFunc, payload)
		reached = true
	})

	assert.False(t, reached)
	assert.EqualError(t, topErr, "Error: fatal")
}

func TestShim_Error_NeverReturns(t *testing.T) {
	f := newShimFixture(t)
	payload, err := json.Marshal(wireformat.MessageWire{Message: "fatal"})
	require.NoError(t, err)

	rerr := testutil.RequireRError(t, func() {
		_, _ = f.reg.Invoke(context.Background(), ErrorFunc, payload)
	})
	assert.Equal(t, "fatal", rerr.Message)
}

func TestShim_StringElt(t *testing.T) {
	f := newShimFixture(t)
	want := []string{"Gopher 1", "", "ünïcode"}
	vec, err := f.rt.NewCharacter(want...)
	require.NoError(t, err)

	for i, s := range want {
		var resp wireformat.StringEltResponseWire
		f.invoke(t, StringEltFunc, wireformat.StringEltRequestWire{Vector: fromHandle(vec), Index: i}, &resp)

		require.Nil(t, resp.Error)
		assert.Equal(t, s, resp.Value)
		assert.Equal(t, uint32(len(s)), resp.Len)
		assert.Equal(t, entities.StringDescriptor{Ptr: resp.Ptr, Len: resp.Len}.Pack(), resp.Descriptor)

		raw, ok := f.rt.Memory().Read(resp.Ptr, resp.Len)
		require.True(t, ok)
		assert.Equal(t, s, string(raw))
	}
}

func TestShim_StringElt_ContractViolations(t *testing.T) {
	f := newShimFixture(t)
	vec, err := f.rt.NewCharacter("only")
	require.NoError(t, err)

	tests := []struct {
		name     string
		req      wireformat.StringEltRequestWire
		wantType string
	}{
		{name: "out of range", req: wireformat.StringEltRequestWire{Vector: fromHandle(vec), Index: 5}, wantType: "bounds"},
		{name: "not a character vector", req: wireformat.StringEltRequestWire{Vector: fromHandle(f.rt.NewList(1))}, wantType: "type"},
		{name: "unknown handle", req: wireformat.StringEltRequestWire{Vector: wireformat.HandleWire{Index: 9999, Generation: 1}}, wantType: "handle"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp wireformat.StringEltResponseWire
			f.invoke(t, StringEltFunc, tt.req, &resp)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantType, resp.Error.Type)
		})
	}
}

func TestShim_ListIndex(t *testing.T) {
	f := newShimFixture(t)
	list := f.rt.NewList(3)
	names, err := f.rt.NewCharacter("alpha", "beta", "beta")
	require.NoError(t, err)
	f.rt.SetNames(list, names)

	tests := []struct {
		list wireformat.HandleWire
		name string
		want int
	}{
		{list: fromHandle(list), name: "beta", want: 1},
		{list: fromHandle(list), name: "gamma", want: -1},
		{list: fromHandle(f.rt.NewList(2)), name: "alpha", want: -1},
	}
	for _, tt := range tests {
		var resp wireformat.ListIndexResponseWire
		f.invoke(t, ListIndexFunc, wireformat.ListIndexRequestWire{List: tt.list, Name: tt.name}, &resp)
		assert.Nil(t, resp.Error)
		assert.Equal(t, tt.want, resp.Index, tt.name)
	}
}

func TestShim_Print(t *testing.T) {
	f := newShimFixture(t)
	vec, err := f.rt.NewCharacter("Gopher 1", "Gopher 2")
	require.NoError(t, err)

	var resp wireformat.ObjectWire
	f.invoke(t, PrintFunc, wireformat.ObjectWire{Object: fromHandle(vec)}, &resp)

	assert.Nil(t, resp.Error)
	assert.Equal(t, fromHandle(vec), resp.Object)
	assert.Equal(t, `STRSXP len=2 ["Gopher 1" "Gopher 2"]`, resp.Summary)
	assert.False(t, resp.SummaryTruncated)
	assert.Equal(t, resp.Summary+"\n", f.out.String())
}

func TestShim_Print_SummaryBounded(t *testing.T) {
	f := newShimFixture(t)
	items := make([]string, 10000)
	for i := range items {
		items[i] = strings.Repeat("x", 10)
	}
	vec, err := f.rt.NewCharacter(items...)
	require.NoError(t, err)

	var resp wireformat.ObjectWire
	f.invoke(t, PrintFunc, wireformat.ObjectWire{Object: fromHandle(vec)}, &resp)

	assert.True(t, resp.SummaryTruncated)
	assert.Len(t, resp.Summary, DefaultMaxOutputSize)
	assert.Greater(t, f.out.Len(), DefaultMaxOutputSize, "the printer itself is not bounded")
}

func TestShim_Print_StaleObject(t *testing.T) {
	f := newShimFixture(t)
	stale := wireformat.HandleWire{Index: 4242, Generation: 3}

	var resp wireformat.ObjectWire
	f.invoke(t, PrintFunc, wireformat.ObjectWire{Object: stale}, &resp)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "handle", resp.Error.Type)
	assert.Equal(t, stale, resp.Object)
}

func TestShim_MalformedRequest(t *testing.T) {
	f := newShimFixture(t)

	raw, err := f.reg.Invoke(context.Background(), StringEltFunc, []byte("{nope"))
	require.NoError(t, err)

	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(raw, &errResp))
	assert.Equal(t, "VALIDATION_ERROR", errResp.Error)
}
