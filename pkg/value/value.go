// Package value decodes WPILOG value payloads into typed values.
//
// A channel's declared type tag selects the decoding; the payload bytes are
// never inspected to guess a type. The set of value kinds is closed: every
// Value is one of the types declared in this file.
package value

import "fmt"

// Kind discriminates the variants of Value.
type Kind uint8

const (
	KindRaw Kind = iota
	KindBool
	KindInt64
	KindFloat
	KindDouble
	KindString
	KindBoolArray
	KindInt64Array
	KindFloatArray
	KindDoubleArray
	KindStringArray
	KindUnknown
)

var kindNames = [...]string{
	KindRaw:         "raw",
	KindBool:        "boolean",
	KindInt64:       "int64",
	KindFloat:       "float",
	KindDouble:      "double",
	KindString:      "string",
	KindBoolArray:   "boolean[]",
	KindInt64Array:  "int64[]",
	KindFloatArray:  "float[]",
	KindDoubleArray: "double[]",
	KindStringArray: "string[]",
	KindUnknown:     "unknown",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Value is a decoded payload. The unexported method seals the set of
// implementations to this package.
type Value interface {
	Kind() Kind
	sealed()
}

type (
	Raw         []byte
	Bool        bool
	Int64       int64
	Float       float32
	Double      float64
	String      string
	BoolArray   []bool
	Int64Array  []int64
	FloatArray  []float32
	DoubleArray []float64
	StringArray []string
)

// Unknown carries the payload of a channel whose type tag is not recognized.
type Unknown struct {
	Type string
	Data []byte
}

func (Raw) Kind() Kind         { return KindRaw }
func (Bool) Kind() Kind        { return KindBool }
func (Int64) Kind() Kind       { return KindInt64 }
func (Float) Kind() Kind       { return KindFloat }
func (Double) Kind() Kind      { return KindDouble }
func (String) Kind() Kind      { return KindString }
func (BoolArray) Kind() Kind   { return KindBoolArray }
func (Int64Array) Kind() Kind  { return KindInt64Array }
func (FloatArray) Kind() Kind  { return KindFloatArray }
func (DoubleArray) Kind() Kind { return KindDoubleArray }
func (StringArray) Kind() Kind { return KindStringArray }
func (Unknown) Kind() Kind     { return KindUnknown }

func (Raw) sealed()         {}
func (Bool) sealed()        {}
func (Int64) sealed()       {}
func (Float) sealed()       {}
func (Double) sealed()      {}
func (String) sealed()      {}
func (BoolArray) sealed()   {}
func (Int64Array) sealed()  {}
func (FloatArray) sealed()  {}
func (DoubleArray) sealed() {}
func (StringArray) sealed() {}
func (Unknown) sealed()     {}
