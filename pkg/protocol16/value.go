package protocol16

// Type tags — ASCII character codes defined by the Photon wire protocol.
const (
	TypeNull         = '*' // 42
	TypeDictionary   = 'D' // 68
	TypeStringArray  = 'a' // 97
	TypeByte         = 'b' // 98
	TypeDouble       = 'd' // 100
	TypeEventData    = 'e' // 101
	TypeFloat        = 'f' // 102
	TypeHashtable    = 'h' // 104
	TypeInteger      = 'i' // 105
	TypeShort        = 'k' // 107
	TypeLong         = 'l' // 108
	TypeIntegerArray = 'n' // 110
	TypeBoolean      = 'o' // 111
	TypeOperationRes = 'p' // 112
	TypeOperationReq = 'q' // 113
	TypeString       = 's' // 115
	TypeByteArray    = 'x' // 120
	TypeArray        = 'y' // 121
	TypeObjectArray  = 'z' // 122
)

// GUID is Photon's 16-byte opaque identifier, stable across zones.
type GUID [16]byte

// Value is the Protocol16 tagged-union value. Concrete dynamic types are:
// nil, byte, bool, int16, int32, int64, float32, float64, string, []byte,
// GUID, *Array, []int32, []string, Dict.
type Value = interface{}

// Array is a decoded list. For a typed array (wire tag 'y') every element
// shares ElemType; a heterogeneous object array (wire tag 'z') is also
// returned as an *Array, with ElemType set to TypeObjectArray.
type Array struct {
	ElemType byte
	Items    []Value
}

// Dict is a heterogeneous key/value map (wire tags 'D'/'h').
type Dict map[Value]Value

// ParamTable maps a 1-byte parameter key to a decoded Value, as carried by
// operation requests/responses and event data.
type ParamTable map[byte]Value
