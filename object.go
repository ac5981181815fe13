package consumer

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/KarpelesLab/pjson"
)

// Caller is the non generic face of a Consumer, as seen from the objects it
// produced. Objects use it to issue further calls against their origin.
type Caller interface {
	Endpoint() string
	Do(ctx context.Context, method, path string, params Params, body any) (*Response, error)
}

// Object is meant to be embedded in types decoded by a Consumer. It holds a
// non owning reference to the Consumer that created the value; the Consumer
// must outlive the objects if they are to issue further calls through it.
type Object struct {
	consumer Caller
}

// Consumer returns the Consumer this object was decoded by, or nil.
func (o *Object) Consumer() Caller {
	return o.consumer
}

// BindConsumer is called by the Consumer once the payload fields are set.
func (o *Object) BindConsumer(c Caller) {
	o.consumer = c
}

// Target is the constraint on the object type of a Consumer: a pointer to T
// able to receive the back-reference, typically by embedding Object.
type Target[T any] interface {
	*T
	BindConsumer(Caller)
}

// Record is a free form object keeping every payload field. Use it when no
// dedicated struct exists for a resource.
type Record struct {
	Object
	Fields map[string]any
}

func (r *Record) UnmarshalJSON(data []byte) error {
	var fields map[string]any
	if err := pjson.Unmarshal(data, &fields); err != nil {
		return err
	}
	// "__consumer__" never reaches the back-reference, it stays a plain field
	r.Fields = fields
	return nil
}

func (r Record) MarshalJSON() ([]byte, error) {
	return pjson.Marshal(r.Fields)
}

// Get returns a field value.
func (r *Record) Get(key string) (any, error) {
	v, ok := r.Fields[key]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return v, nil
}

func (r *Record) GetString(key string) (string, error) {
	v, err := r.Get(key)
	if err != nil {
		return "", err
	}
	str, ok := v.(string)
	if !ok {
		return fmt.Sprintf("%v", v), fmt.Errorf("unexpected type %T for string %s", v, key)
	}
	return str, nil
}

// Result holds the objects decoded from a successful response.
type Result[T any] struct {
	Items []*T
	// Array is set when the payload was a JSON array, even an empty one.
	Array bool
}

// One returns the first object, or nil when there is none.
func (r *Result[T]) One() *T {
	if len(r.Items) == 0 {
		return nil
	}
	return r.Items[0]
}

func (r *Result[T]) All() []*T {
	return r.Items
}

func (r *Result[T]) Len() int {
	return len(r.Items)
}
