package monitoring

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	errs    []error
	tags    []map[string]string
	panics  []any
	flushed int
}

func (r *recorder) CaptureException(err error, tags map[string]string) {
	r.errs = append(r.errs, err)
	r.tags = append(r.tags, tags)
}
func (r *recorder) CapturePanic(v any) { r.panics = append(r.panics, v) }
func (r *recorder) Flush(time.Duration) { r.flushed++ }

func TestCaptureException(t *testing.T) {
	rec := &recorder{}
	Init(rec)
	defer Init(nil)

	CaptureException(nil, nil)
	CaptureException(errors.New("boom"), map[string]string{"module": "trainer"})
	require.Len(t, rec.errs, 1)
	assert.EqualError(t, rec.errs[0], "boom")
	assert.Equal(t, "trainer", rec.tags[0]["module"])
}

func TestRecoverRepanics(t *testing.T) {
	rec := &recorder{}
	Init(rec)
	defer Init(nil)

	assert.PanicsWithValue(t, "bad", func() {
		defer Recover()
		panic("bad")
	})
	assert.Equal(t, []any{"bad"}, rec.panics)
	assert.Equal(t, 1, rec.flushed)
}

func TestRecoverError(t *testing.T) {
	rec := &recorder{}
	Init(rec)
	defer Init(nil)

	run := func() (err error) {
		defer RecoverError(&err)
		panic("worker crashed")
	}
	err := run()
	assert.EqualError(t, err, "panic: worker crashed")
	assert.Len(t, rec.panics, 1)
}

func TestNopByDefault(t *testing.T) {
	Init(nil)
	assert.NotPanics(t, func() {
		CaptureException(errors.New("ignored"), nil)
		Flush(time.Millisecond)
	})
}
