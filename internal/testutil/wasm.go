package testutil

import "github.com/tetratelabs/wazero/api"

// GuestImport names a host function a forwarding guest imports.
type GuestImport struct {
	Name    string
	Params  []api.ValueType
	Results []api.ValueType
}

// ForwardingGuest encodes a guest module that imports each function from
// module and re-exports a caller of the same name and signature. Calling
// the guest export passes its arguments straight to the host function, so
// the host sees a real guest as its caller.
func ForwardingGuest(module string, imports ...GuestImport) []byte {
	n := uint64(len(imports))
	bin := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

	types := appendULEB128(nil, n)
	for _, imp := range imports {
		types = append(types, 0x60)
		types = appendValueTypes(types, imp.Params)
		types = appendValueTypes(types, imp.Results)
	}
	bin = appendSection(bin, 0x01, types)

	imps := appendULEB128(nil, n)
	for i, imp := range imports {
		imps = appendName(imps, module)
		imps = appendName(imps, imp.Name)
		imps = append(imps, 0x00)
		imps = appendULEB128(imps, uint64(i))
	}
	bin = appendSection(bin, 0x02, imps)

	funcs := appendULEB128(nil, n)
	for i := range imports {
		funcs = appendULEB128(funcs, uint64(i))
	}
	bin = appendSection(bin, 0x03, funcs)

	exports := appendULEB128(nil, n)
	for i, imp := range imports {
		exports = appendName(exports, imp.Name)
		exports = append(exports, 0x00)
		exports = appendULEB128(exports, n+uint64(i))
	}
	bin = appendSection(bin, 0x07, exports)

	code := appendULEB128(nil, n)
	for i, imp := range imports {
		body := []byte{0x00}
		for j := range imp.Params {
			body = append(body, 0x20)
			body = appendULEB128(body, uint64(j))
		}
		body = append(body, 0x10)
		body = appendULEB128(body, uint64(i))
		body = append(body, 0x0b)
		code = appendULEB128(code, uint64(len(body)))
		code = append(code, body...)
	}
	return appendSection(bin, 0x0a, code)
}

func appendSection(bin []byte, id byte, content []byte) []byte {
	bin = append(bin, id)
	bin = appendULEB128(bin, uint64(len(content)))
	return append(bin, content...)
}

func appendName(b []byte, name string) []byte {
	b = appendULEB128(b, uint64(len(name)))
	return append(b, name...)
}

func appendValueTypes(b []byte, types []api.ValueType) []byte {
	b = appendULEB128(b, uint64(len(types)))
	return append(b, types...)
}

func appendULEB128(b []byte, v uint64) []byte {
	for v >= 0x80 {
		b = append(b, byte(v)|0x80)
		v >>= 7
	}
	return append(b, byte(v))
}
