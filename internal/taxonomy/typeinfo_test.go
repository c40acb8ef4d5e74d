package taxonomy

import "testing"

func TestResolveHint(t *testing.T) {
	tests := []struct {
		hint string
		want TypeInfo
	}{
		{"", TypeInfo{Kind: KindUnannotated}},
		{"int", TypeInfo{Kind: KindNumeric, Name: "int"}},
		{"float", TypeInfo{Kind: KindNumeric, Name: "float"}},
		{"str", TypeInfo{Kind: KindString, Name: "str"}},
		{"bool", TypeInfo{Kind: KindBoolean, Name: "bool"}},
		{"List[int]", TypeInfo{Kind: KindCollection, Name: "list"}},
		{"dict[str, int]", TypeInfo{Kind: KindCollection, Name: "dict"}},
		{"typing.Tuple[int, int]", TypeInfo{Kind: KindCollection, Name: "tuple"}},
		{"Optional[int]", TypeInfo{Kind: KindNumeric, Name: "int", Optional: true}},
		{"str | None", TypeInfo{Kind: KindString, Name: "str", Optional: true}},
		{"Union[float, None]", TypeInfo{Kind: KindNumeric, Name: "float", Optional: true}},
		{"None", TypeInfo{Kind: KindNone, Name: "None"}},
		{"Any", TypeInfo{Kind: KindUnannotated}},
		{"Customer", TypeInfo{Kind: KindUnresolved, Name: "Customer"}},
		{"'Customer'", TypeInfo{Kind: KindUnresolved, Name: "Customer"}},
	}
	for _, tt := range tests {
		if got := ResolveHint(tt.hint); got != tt.want {
			t.Errorf("ResolveHint(%q) = %+v, want %+v", tt.hint, got, tt.want)
		}
	}
}

func TestLiteralType(t *testing.T) {
	tests := []struct {
		text string
		want TypeKind
		name string
	}{
		{"0", KindNumeric, "int"},
		{"1_000", KindNumeric, "int"},
		{"2.5", KindNumeric, "float"},
		{"'x'", KindString, "str"},
		{`"x"`, KindString, "str"},
		{"False", KindBoolean, "bool"},
		{"[]", KindCollection, "list"},
		{"{}", KindCollection, "dict"},
		{"{1, 2}", KindCollection, "set"},
		{"()", KindCollection, "tuple"},
		{"None", KindUnannotated, ""},
		{"make_default()", KindUnannotated, ""},
	}
	for _, tt := range tests {
		got := LiteralType(tt.text)
		if got.Kind != tt.want || got.Name != tt.name {
			t.Errorf("LiteralType(%q) = %+v, want kind %s name %q", tt.text, got, tt.want, tt.name)
		}
	}
}
