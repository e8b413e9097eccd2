package value

import "fmt"

// Record is a decoded value at a specific timestamp.
//
// The typed accessors panic when called for the wrong variant; asking a
// double channel for a string is a programming error, not a data error.
type Record struct {
	Timestamp uint64
	Value     Value
}

// NewRecord creates a record for v at timestamp ts.
func NewRecord(ts uint64, v Value) Record {
	return Record{Timestamp: ts, Value: v}
}

// Kind returns the kind of the record's value.
func (r Record) Kind() Kind {
	return r.Value.Kind()
}

func (r Record) mustBe(kinds ...Kind) {
	got := r.Value.Kind()
	for _, k := range kinds {
		if got == k {
			return
		}
	}
	panic(fmt.Sprintf("value: expected %v, but record holds %v", kinds, got))
}

// Raw returns the bytes of a raw or unknown record.
func (r Record) Raw() []byte {
	r.mustBe(KindRaw, KindUnknown)
	if u, ok := r.Value.(Unknown); ok {
		return u.Data
	}
	return r.Value.(Raw)
}

func (r Record) Bool() bool {
	r.mustBe(KindBool)
	return bool(r.Value.(Bool))
}

func (r Record) Int64() int64 {
	r.mustBe(KindInt64)
	return int64(r.Value.(Int64))
}

func (r Record) Float() float32 {
	r.mustBe(KindFloat)
	return float32(r.Value.(Float))
}

func (r Record) Double() float64 {
	r.mustBe(KindDouble)
	return float64(r.Value.(Double))
}

func (r Record) StringValue() string {
	r.mustBe(KindString)
	return string(r.Value.(String))
}

func (r Record) BoolArray() []bool {
	r.mustBe(KindBoolArray)
	return r.Value.(BoolArray)
}

func (r Record) Int64Array() []int64 {
	r.mustBe(KindInt64Array)
	return r.Value.(Int64Array)
}

func (r Record) FloatArray() []float32 {
	r.mustBe(KindFloatArray)
	return r.Value.(FloatArray)
}

func (r Record) DoubleArray() []float64 {
	r.mustBe(KindDoubleArray)
	return r.Value.(DoubleArray)
}

func (r Record) StringArray() []string {
	r.mustBe(KindStringArray)
	return r.Value.(StringArray)
}
