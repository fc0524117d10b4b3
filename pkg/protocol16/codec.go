package protocol16

// DecodeParamTable decodes a Protocol16 parameter table: a 2-byte
// big-endian count followed by that many (key:u8, type:u8, value) triples.
// Malformed entries truncate the table rather than erroring — the wire
// contract never aborts an entire message over one bad parameter.
func DecodeParamTable(r *Reader) ParamTable {
	params := make(ParamTable)

	if r.Remaining() < 2 {
		return params
	}
	count, err := r.ReadUint16()
	if err != nil {
		return params
	}

	for i := 0; i < int(count) && !r.IsEmpty(); i++ {
		key, err := r.ReadByte()
		if err != nil {
			break
		}
		typeTag, err := r.ReadByte()
		if err != nil {
			break
		}
		params[key] = DecodeValue(r, typeTag)
	}
	return params
}

// DecodeValue decodes a single tagged value. Unknown tags or truncated
// buffers yield nil rather than an error, matching the decoder's
// drop-the-bad-part-not-the-whole-message policy.
func DecodeValue(r *Reader, tag byte) Value {
	if r.IsEmpty() && tag != TypeNull {
		return nil
	}

	switch tag {
	case 0, TypeNull:
		return nil

	case TypeByte:
		v, err := r.ReadByte()
		if err != nil {
			return nil
		}
		return v

	case TypeBoolean:
		v, err := r.ReadBool()
		if err != nil {
			return nil
		}
		return v

	case TypeShort, 7: // 7 observed as an alternate short tag in captures
		v, err := r.ReadInt16()
		if err != nil {
			return nil
		}
		return v

	case TypeInteger:
		v, err := r.ReadInt32()
		if err != nil {
			return nil
		}
		return v

	case TypeLong:
		v, err := r.ReadInt64()
		if err != nil {
			return nil
		}
		return v

	case TypeFloat:
		v, err := r.ReadFloat32()
		if err != nil {
			return nil
		}
		return v

	case TypeDouble:
		v, err := r.ReadFloat64()
		if err != nil {
			return nil
		}
		return v

	case TypeString:
		v, err := r.ReadString()
		if err != nil {
			return nil
		}
		return v

	case TypeByteArray:
		length, err := r.ReadUint32()
		if err != nil {
			return nil
		}
		if int(length) == 16 {
			// A 16-byte blob in this slot is conventionally a player GUID.
			b, err := r.ReadBytes(16)
			if err != nil {
				return nil
			}
			var g GUID
			copy(g[:], b)
			return g
		}
		b, err := r.ReadBytes(int(length))
		if err != nil {
			return nil
		}
		return b

	case TypeArray:
		length, err := r.ReadUint16()
		if err != nil {
			return nil
		}
		elemType, err := r.ReadByte()
		if err != nil {
			return nil
		}
		items := make([]Value, length)
		for i := 0; i < int(length) && !r.IsEmpty(); i++ {
			items[i] = DecodeValue(r, elemType)
		}
		return &Array{ElemType: elemType, Items: items}

	case TypeIntegerArray:
		length, err := r.ReadUint32()
		if err != nil {
			return nil
		}
		arr := make([]int32, length)
		for i := 0; i < int(length); i++ {
			v, err := r.ReadInt32()
			if err != nil {
				break
			}
			arr[i] = v
		}
		return arr

	case TypeStringArray:
		length, err := r.ReadUint16()
		if err != nil {
			return nil
		}
		arr := make([]string, length)
		for i := 0; i < int(length) && !r.IsEmpty(); i++ {
			s, err := r.ReadString()
			if err != nil {
				break
			}
			arr[i] = s
		}
		return arr

	case TypeDictionary, TypeHashtable:
		keyType, err := r.ReadByte()
		if err != nil {
			return nil
		}
		valType, err := r.ReadByte()
		if err != nil {
			return nil
		}
		length, err := r.ReadUint16()
		if err != nil {
			return nil
		}
		dict := make(Dict, length)
		for i := 0; i < int(length) && !r.IsEmpty(); i++ {
			kt := keyType
			if kt == 0 {
				kt, err = r.ReadByte()
				if err != nil {
					break
				}
			}
			key := DecodeValue(r, kt)

			vt := valType
			if vt == 0 {
				vt, err = r.ReadByte()
				if err != nil {
					break
				}
			}
			val := DecodeValue(r, vt)

			dict[key] = val
		}
		return dict

	case TypeObjectArray:
		length, err := r.ReadUint16()
		if err != nil {
			return nil
		}
		items := make([]Value, length)
		for i := 0; i < int(length) && !r.IsEmpty(); i++ {
			elemType, err := r.ReadByte()
			if err != nil {
				break
			}
			items[i] = DecodeValue(r, elemType)
		}
		return &Array{ElemType: TypeObjectArray, Items: items}

	default:
		return nil
	}
}

// EncodeValue writes v back out in its tagged wire form. It is the inverse
// of DecodeValue for every tag DecodeValue can produce, so that
// Encode(Decode(x)) round-trips for the supported tag set.
func EncodeValue(w *Writer, tag byte, v Value) {
	switch tag {
	case TypeNull:
		return

	case TypeByte:
		w.WriteByte(v.(byte))

	case TypeBoolean:
		w.WriteBool(v.(bool))

	case TypeShort:
		w.WriteInt16(v.(int16))

	case TypeInteger:
		w.WriteInt32(v.(int32))

	case TypeLong:
		w.WriteInt64(v.(int64))

	case TypeFloat:
		w.WriteFloat32(v.(float32))

	case TypeDouble:
		w.WriteFloat64(v.(float64))

	case TypeString:
		w.WriteString(v.(string))

	case TypeByteArray:
		switch b := v.(type) {
		case GUID:
			w.WriteUint32(16)
			w.WriteBytes(b[:])
		case []byte:
			w.WriteUint32(uint32(len(b)))
			w.WriteBytes(b)
		}

	case TypeArray, TypeObjectArray:
		arr, ok := v.(*Array)
		if !ok {
			return
		}
		w.WriteUint16(uint16(len(arr.Items)))
		if tag == TypeArray {
			w.WriteByte(arr.ElemType)
			for _, item := range arr.Items {
				EncodeValue(w, arr.ElemType, item)
			}
			return
		}
		for _, item := range arr.Items {
			itemTag := tagForValue(item)
			w.WriteByte(itemTag)
			EncodeValue(w, itemTag, item)
		}

	case TypeIntegerArray:
		arr := v.([]int32)
		w.WriteUint32(uint32(len(arr)))
		for _, i := range arr {
			w.WriteInt32(i)
		}

	case TypeStringArray:
		arr := v.([]string)
		w.WriteUint16(uint16(len(arr)))
		for _, s := range arr {
			w.WriteString(s)
		}

	case TypeDictionary, TypeHashtable:
		dict := v.(Dict)
		w.WriteByte(0)
		w.WriteByte(0)
		w.WriteUint16(uint16(len(dict)))
		for k, val := range dict {
			kt := tagForValue(k)
			w.WriteByte(kt)
			EncodeValue(w, kt, k)
			vt := tagForValue(val)
			w.WriteByte(vt)
			EncodeValue(w, vt, val)
		}
	}
}

// EncodeParamTable is the inverse of DecodeParamTable.
func EncodeParamTable(w *Writer, params ParamTable) {
	w.WriteUint16(uint16(len(params)))
	for key, val := range params {
		w.WriteByte(key)
		tag := tagForValue(val)
		w.WriteByte(tag)
		EncodeValue(w, tag, val)
	}
}

// tagForValue infers the wire tag for a decoded Go value — used when
// re-encoding heterogeneous containers (object arrays, dictionaries) whose
// per-element type was only implicit on read.
func tagForValue(v Value) byte {
	switch v.(type) {
	case nil:
		return TypeNull
	case byte:
		return TypeByte
	case bool:
		return TypeBoolean
	case int16:
		return TypeShort
	case int32:
		return TypeInteger
	case int64:
		return TypeLong
	case float32:
		return TypeFloat
	case float64:
		return TypeDouble
	case string:
		return TypeString
	case []byte, GUID:
		return TypeByteArray
	case []int32:
		return TypeIntegerArray
	case []string:
		return TypeStringArray
	case Dict:
		return TypeDictionary
	case *Array:
		return TypeObjectArray
	default:
		return TypeNull
	}
}
