package bridge

import (
	"context"
	"fmt"
	"io"

	"github.com/reglet-dev/sexpbridge/domain/entities"
	"github.com/reglet-dev/sexpbridge/domain/ports"
)

// TextPrinter is the default host print routine. It writes one line per
// object: the object's summary followed, for atomic vectors, by their
// contents. It returns the object unaltered.
type TextPrinter struct {
	w io.Writer
}

// NewTextPrinter returns a printer writing to w.
func NewTextPrinter(w io.Writer) *TextPrinter {
	return &TextPrinter{w: w}
}

// Print implements ports.Printer.
func (p *TextPrinter) Print(_ context.Context, rt ports.NativeRuntime, obj entities.Handle) (entities.Handle, error) {
	if _, err := io.WriteString(p.w, Format(rt, obj)+"\n"); err != nil {
		return obj, fmt.Errorf("failed to print %s: %w", obj, err)
	}
	return obj, nil
}

// Format renders obj the way TextPrinter prints it, without the newline.
func Format(rt ports.NativeRuntime, obj entities.Handle) string {
	info := rt.Info(obj)

	switch info.Type {
	case entities.CHARSXP:
		return fmt.Sprintf("%s %s", info, charBytes(rt, obj))
	case entities.STRSXP:
		strs := make([]string, rt.Length(obj))
		for i := range strs {
			strs[i] = string(charBytes(rt, rt.StringElt(obj, i)))
		}
		return fmt.Sprintf("%s %q", info, strs)
	}

	vr, ok := rt.(ports.VectorReader)
	if !ok {
		return info.String()
	}
	switch info.Type {
	case entities.INTSXP:
		return fmt.Sprintf("%s %#v", info, vr.Integers(obj))
	case entities.LGLSXP:
		return fmt.Sprintf("%s %#v", info, vr.Logicals(obj))
	case entities.REALSXP:
		return fmt.Sprintf("%s %#v", info, vr.Reals(obj))
	case entities.CPLXSXP:
		return fmt.Sprintf("%s %#v", info, vr.Complexes(obj))
	case entities.RAWSXP:
		return fmt.Sprintf("%s %#v", info, vr.RawBytes(obj))
	}
	return info.String()
}

func charBytes(rt ports.NativeRuntime, ch entities.Handle) []byte {
	d := rt.CharDescriptor(ch)
	b, ok := rt.Memory().Read(d.Ptr, d.Len)
	if !ok {
		return nil
	}
	return b
}
