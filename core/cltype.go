package core

// CLTypeTag is the discriminant of a CLType: a self-describing tag that
// accompanies every CLValue so a guest or host can type-check a value
// before decoding it (spec.md §3 "CLValue").
type CLTypeTag uint8

const (
	CLTBool CLTypeTag = iota
	CLTI32
	CLTI64
	CLTU8
	CLTU32
	CLTU64
	CLTU128
	CLTU256
	CLTU512
	CLTUnit
	CLTString
	CLTKey
	CLTURef
	CLTPublicKey
	CLTOption
	CLTResult
	CLTList
	CLTFixedList
	CLTTuple1
	CLTTuple2
	CLTTuple3
	CLTMap
	CLTAny
)

var clTypeTagNames = map[CLTypeTag]string{
	CLTBool:      "Bool",
	CLTI32:       "I32",
	CLTI64:       "I64",
	CLTU8:        "U8",
	CLTU32:       "U32",
	CLTU64:       "U64",
	CLTU128:      "U128",
	CLTU256:      "U256",
	CLTU512:      "U512",
	CLTUnit:      "Unit",
	CLTString:    "String",
	CLTKey:       "Key",
	CLTURef:      "URef",
	CLTPublicKey: "PublicKey",
	CLTOption:    "Option",
	CLTResult:    "Result",
	CLTList:      "List",
	CLTFixedList: "FixedList",
	CLTTuple1:    "Tuple1",
	CLTTuple2:    "Tuple2",
	CLTTuple3:    "Tuple3",
	CLTMap:       "Map",
	CLTAny:       "Any",
}

func (t CLTypeTag) String() string {
	if n, ok := clTypeTagNames[t]; ok {
		return n
	}
	return "Unknown"
}

// CLType is a recursive type tag: primitives carry no further information,
// parameterised variants (Option, Result, List, FixedList, TupleN, Map)
// carry their type parameters in Params, and FixedList additionally carries
// its declared length.
type CLType struct {
	Tag      CLTypeTag
	Params   []CLType // Option: [elem]; Result: [ok, err]; List/FixedList: [elem]; TupleN: [elem...]; Map: [key, value]
	FixedLen uint32   // only meaningful when Tag == CLTFixedList
}

// Simple primitive type constructors.
func TBool() CLType      { return CLType{Tag: CLTBool} }
func TI32() CLType       { return CLType{Tag: CLTI32} }
func TI64() CLType       { return CLType{Tag: CLTI64} }
func TU8() CLType        { return CLType{Tag: CLTU8} }
func TU32() CLType       { return CLType{Tag: CLTU32} }
func TU64() CLType       { return CLType{Tag: CLTU64} }
func TU128() CLType      { return CLType{Tag: CLTU128} }
func TU256() CLType      { return CLType{Tag: CLTU256} }
func TU512() CLType      { return CLType{Tag: CLTU512} }
func TUnit() CLType      { return CLType{Tag: CLTUnit} }
func TString() CLType    { return CLType{Tag: CLTString} }
func TKey() CLType       { return CLType{Tag: CLTKey} }
func TURef() CLType      { return CLType{Tag: CLTURef} }
func TPublicKey() CLType { return CLType{Tag: CLTPublicKey} }
func TAny() CLType       { return CLType{Tag: CLTAny} }

// TOption builds Option<elem>.
func TOption(elem CLType) CLType { return CLType{Tag: CLTOption, Params: []CLType{elem}} }

// TResult builds Result<ok,err>.
func TResult(ok, errT CLType) CLType { return CLType{Tag: CLTResult, Params: []CLType{ok, errT}} }

// TList builds List<elem>.
func TList(elem CLType) CLType { return CLType{Tag: CLTList, Params: []CLType{elem}} }

// TFixedList builds FixedList<elem,N>.
func TFixedList(elem CLType, n uint32) CLType {
	return CLType{Tag: CLTFixedList, Params: []CLType{elem}, FixedLen: n}
}

// TTuple1/2/3 build fixed-arity heterogeneous tuples.
func TTuple1(a CLType) CLType       { return CLType{Tag: CLTTuple1, Params: []CLType{a}} }
func TTuple2(a, b CLType) CLType    { return CLType{Tag: CLTTuple2, Params: []CLType{a, b}} }
func TTuple3(a, b, c CLType) CLType { return CLType{Tag: CLTTuple3, Params: []CLType{a, b, c}} }

// TMap builds Map<key,value>.
func TMap(key, value CLType) CLType { return CLType{Tag: CLTMap, Params: []CLType{key, value}} }

// NamedKeyType is the Tuple2(String, Key) type used by the Add-keys
// transform (spec.md §4.4 "add", step 2: "Tuple2(String,Key)").
func NamedKeyType() CLType { return TTuple2(TString(), TKey()) }

// Equal performs a structural comparison of two type tags, including
// recursive parameters.
func (t CLType) Equal(other CLType) bool {
	if t.Tag != other.Tag {
		return false
	}
	if t.Tag == CLTFixedList && t.FixedLen != other.FixedLen {
		return false
	}
	if len(t.Params) != len(other.Params) {
		return false
	}
	for i := range t.Params {
		if !t.Params[i].Equal(other.Params[i]) {
			return false
		}
	}
	return true
}

// EncodeCanonical writes the recursive tag encoding used as the trailing
// portion of a CLValue's wire form (spec.md §4.2/§6): one discriminant byte
// per level, then each parameter's own encoding, in declaration order.
func (t CLType) EncodeCanonical(w *Writer) {
	w.WriteU8(uint8(t.Tag))
	if t.Tag == CLTFixedList {
		w.WriteU32(t.FixedLen)
	}
	for _, p := range t.Params {
		p.EncodeCanonical(w)
	}
}

// DecodeCLType parses a CLType from r, the inverse of EncodeCanonical.
func DecodeCLType(r *Reader) (CLType, error) {
	tagByte, err := r.ReadU8()
	if err != nil {
		return CLType{}, err
	}
	tag := CLTypeTag(tagByte)
	t := CLType{Tag: tag}
	switch tag {
	case CLTFixedList:
		n, err := r.ReadU32()
		if err != nil {
			return CLType{}, err
		}
		t.FixedLen = n
		elem, err := DecodeCLType(r)
		if err != nil {
			return CLType{}, err
		}
		t.Params = []CLType{elem}
	case CLTOption, CLTList, CLTTuple1:
		elem, err := DecodeCLType(r)
		if err != nil {
			return CLType{}, err
		}
		t.Params = []CLType{elem}
	case CLTResult, CLTTuple2, CLTMap:
		a, err := DecodeCLType(r)
		if err != nil {
			return CLType{}, err
		}
		b, err := DecodeCLType(r)
		if err != nil {
			return CLType{}, err
		}
		t.Params = []CLType{a, b}
	case CLTTuple3:
		a, err := DecodeCLType(r)
		if err != nil {
			return CLType{}, err
		}
		b, err := DecodeCLType(r)
		if err != nil {
			return CLType{}, err
		}
		c, err := DecodeCLType(r)
		if err != nil {
			return CLType{}, err
		}
		t.Params = []CLType{a, b, c}
	default:
		// primitive: no further params
	}
	return t, nil
}
