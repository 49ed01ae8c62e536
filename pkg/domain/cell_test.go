package domain_test

import (
	"testing"

	"github.com/aretw0/quire/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestCell_New(t *testing.T) {
	code := domain.NewCell(domain.CellKindCode)
	assert.True(t, code.IsCode())
	assert.Nil(t, code.ExecutionCount)
	assert.NotNil(t, code.Outputs)

	md := domain.NewCell(domain.CellKindMarkdown)
	assert.False(t, md.IsCode())
	assert.Nil(t, md.ExecutionCount)
	assert.Nil(t, md.Outputs, "markdown cells never carry outputs")
}

func TestCell_SetResultReplacesOutputs(t *testing.T) {
	cell := domain.NewCell(domain.CellKindCode)
	cell.SetResult([]domain.Output{domain.TextOutput("old")}, 1)
	cell.SetResult([]domain.Output{domain.TextOutput("new")}, 2)

	assert.Len(t, cell.Outputs, 1)
	assert.Equal(t, "new", cell.Outputs[0].Text())
	assert.Equal(t, 2, *cell.ExecutionCount)
}

func TestOutput_Text(t *testing.T) {
	assert.Equal(t, "2\n", domain.TextOutput("2\n").Text())
	assert.Equal(t, "division by zero", domain.ErrorOutput("ZeroDivisionError", "division by zero").Text())
	assert.Equal(t, "", domain.Output{"output_type": "display_data"}.Text())
}
