package fileproc

import (
	"errors"
	"fmt"
	"sort"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapFilesWithResourceCollectsResults(t *testing.T) {
	files := []string{"a.c", "b.c", "c.c"}
	results := MapFilesWithResource(files,
		func() (struct{}, error) { return struct{}{}, nil },
		nil,
		func(_ struct{}, path string) (string, error) { return path + "!", nil },
		nil, nil)

	sort.Strings(results)
	assert.Equal(t, []string{"a.c!", "b.c!", "c.c!"}, results)
}

func TestMapFilesWithResourceEmptyInput(t *testing.T) {
	results := MapFilesWithResource(nil,
		func() (struct{}, error) { return struct{}{}, nil },
		nil,
		func(_ struct{}, path string) (int, error) { return 0, nil },
		nil, nil)
	assert.Nil(t, results)
}

func TestMapFilesWithResourceSkipsErrorsAndReportsThem(t *testing.T) {
	files := []string{"good.c", "bad.c"}
	var failed atomic.Int32
	results := MapFilesWithResource(files,
		func() (struct{}, error) { return struct{}{}, nil },
		nil,
		func(_ struct{}, path string) (string, error) {
			if path == "bad.c" {
				return "", errors.New("parse failed")
			}
			return path, nil
		},
		nil,
		func(path string, err error) {
			assert.Equal(t, "bad.c", path)
			failed.Add(1)
		})

	assert.Equal(t, []string{"good.c"}, results)
	assert.Equal(t, int32(1), failed.Load())
}

func TestMapFilesWithResourceProgressCountsEveryFile(t *testing.T) {
	files := []string{"a.c", "b.c", "c.c", "d.c"}
	var progressed atomic.Int32
	MapFilesWithResource(files,
		func() (struct{}, error) { return struct{}{}, nil },
		nil,
		func(_ struct{}, path string) (struct{}, error) {
			if path == "b.c" {
				return struct{}{}, errors.New("boom")
			}
			return struct{}{}, nil
		},
		func() { progressed.Add(1) },
		nil)

	// Progress fires for failures too.
	assert.Equal(t, int32(4), progressed.Load())
}

func TestMapFilesWithResourceSharesResourcePerWorker(t *testing.T) {
	files := make([]string, 20)
	for i := range files {
		files[i] = fmt.Sprintf("f%02d.c", i)
	}

	var created, closed atomic.Int32
	results := MapFilesWithResource(files,
		func() (int32, error) { return created.Add(1), nil },
		func(int32) { closed.Add(1) },
		func(r int32, path string) (string, error) { return path, nil },
		nil, nil)

	assert.Len(t, results, len(files))
	require.Positive(t, created.Load())
	assert.Equal(t, created.Load(), closed.Load())
}

func TestMapFilesWithResourceInitFailure(t *testing.T) {
	files := []string{"a.c"}
	results := MapFilesWithResource(files,
		func() (int, error) { return 0, errors.New("no resource") },
		nil,
		func(r int, path string) (string, error) {
			t.Fatal("fn must not run without a resource")
			return "", nil
		},
		nil, nil)

	assert.Empty(t, results)
}

func TestProcessingErrorsError(t *testing.T) {
	errs := &ProcessingErrors{}
	assert.False(t, errs.HasErrors())
	assert.Equal(t, "no errors", errs.Error())

	errs.Add("a.c", errors.New("bad"))
	assert.True(t, errs.HasErrors())
	assert.Equal(t, "a.c: bad", errs.Error())

	errs.Add("b.c", errors.New("worse"))
	assert.Contains(t, errs.Error(), "2 files failed")
}
