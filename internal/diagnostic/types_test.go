package diagnostic

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiagnostics_Empty(t *testing.T) {
	var d Diagnostics

	assert.False(t, d.HasErrors())
	assert.NoError(t, d.Error())
}

func TestDiagnostics_ErrorCombinesMessages(t *testing.T) {
	var d Diagnostics
	d.AddError(CodeConstructionFailure, "constructor panicked", "app.Widget", "offsets")
	d.AddError(CodeUnsupportedValueType, "int is not a pointer to a struct", "int", "")
	d.AddWarning(CodeTypeNotFound, "no getters", "app.Widget", "usage")

	require.True(t, d.HasErrors())
	assert.EqualError(t, d.Error(),
		"[app.Widget] offsets: [construction-failure] constructor panicked; "+
			"[int]: [unsupported-value-type] int is not a pointer to a struct")
	assert.Len(t, d.Warnings, 1)
}

func TestDiagnostics_Sort(t *testing.T) {
	var d Diagnostics
	d.AddError(CodeInternal, "b", "b.T", "usage")
	d.AddError(CodeInternal, "a2", "a.T", "usage")
	d.AddError(CodeInternal, "a1", "a.T", "offsets")

	d.Sort()

	var msgs []string
	for _, e := range d.Errors {
		msgs = append(msgs, e.Message)
	}
	assert.Equal(t, []string{"a1", "a2", "b"}, msgs)
}

func TestDiagnostics_ConcurrentAdd(t *testing.T) {
	var d Diagnostics
	var wg sync.WaitGroup

	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if i%2 == 0 {
				d.AddError(CodeInternal, "x", "T", "")
			} else {
				d.AddInfo(CodeInternal, "y", "T", "")
			}
		}()
	}
	wg.Wait()

	assert.Len(t, d.Errors, 25)
	assert.Len(t, d.Infos, 25)
}

func TestSeverity_String(t *testing.T) {
	assert.Equal(t, "info", SeverityInfo.String())
	assert.Equal(t, "warning", SeverityWarning.String())
	assert.Equal(t, "error", SeverityError.String())
	assert.Equal(t, "unknown", Severity(9).String())
}
