package ingest

import (
	"testing"

	"github.com/ehcp-review/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVParser_Parse(t *testing.T) {
	p := NewCSVParser()

	t.Run("mirrors header and rows", func(t *testing.T) {
		data := "Name,EHCP Targets,Year\nAna,Improve reading,7\nBen,\"Speech, language\",8\n"

		table, err := p.Parse([]byte(data))
		require.NoError(t, err)

		assert.Equal(t, []string{"Name", "EHCP Targets", "Year"}, table.Columns)
		assert.Equal(t, []models.Row{
			{"Name": "Ana", "EHCP Targets": "Improve reading", "Year": "7"},
			{"Name": "Ben", "EHCP Targets": "Speech, language", "Year": "8"},
		}, table.Rows)
	})

	t.Run("empty cells are missing", func(t *testing.T) {
		table, err := p.Parse([]byte("Name,EHCP Targets\nAna,\n"))
		require.NoError(t, err)
		require.Equal(t, 1, table.Len())

		_, ok := table.Value(0, "EHCP Targets")
		assert.False(t, ok)
		v, ok := table.Value(0, "Name")
		assert.True(t, ok)
		assert.Equal(t, "Ana", v)
	})

	t.Run("short rows leave trailing cells missing", func(t *testing.T) {
		table, err := p.Parse([]byte("A,B,C\n1\n"))
		require.NoError(t, err)
		assert.Equal(t, []models.Row{{"A": "1"}}, table.Rows)
	})

	t.Run("long rows fail", func(t *testing.T) {
		_, err := p.Parse([]byte("A,B\n1,2,3\n"))
		assert.Error(t, err)
	})

	t.Run("strips byte order mark", func(t *testing.T) {
		table, err := p.Parse(append([]byte{0xEF, 0xBB, 0xBF}, []byte("Name\nAna\n")...))
		require.NoError(t, err)
		assert.Equal(t, []string{"Name"}, table.Columns)
	})

	t.Run("skips blank lines", func(t *testing.T) {
		table, err := p.Parse([]byte("Name\n\nAna\n\nBen\n"))
		require.NoError(t, err)
		assert.Equal(t, 2, table.Len())
	})

	t.Run("keeps rows whose cells are all empty", func(t *testing.T) {
		table, err := p.Parse([]byte("Name,EHCP Targets\nAna,Read\n,\nBo,Write\n"))
		require.NoError(t, err)
		require.Equal(t, 3, table.Len())

		assert.Equal(t, models.Row{}, table.Rows[1])
		_, ok := table.Value(1, "Name")
		assert.False(t, ok)
		assert.Equal(t, "Bo", table.Rows[2]["Name"])
	})

	t.Run("names blank and duplicate headers", func(t *testing.T) {
		table, err := p.Parse([]byte("Name,,Name,Name\na,b,c,d\n"))
		require.NoError(t, err)
		assert.Equal(t, []string{"Name", "Unnamed: 1", "Name.1", "Name.2"}, table.Columns)
		assert.Equal(t, "c", table.Rows[0]["Name.1"])
	})

	t.Run("header only gives zero rows", func(t *testing.T) {
		table, err := p.Parse([]byte("Extracted Text\n"))
		require.NoError(t, err)
		assert.Equal(t, 0, table.Len())
		assert.True(t, table.Empty())
	})

	t.Run("empty file fails", func(t *testing.T) {
		_, err := p.Parse(nil)
		assert.ErrorIs(t, err, ErrNoColumns)
	})

	t.Run("unterminated quote fails", func(t *testing.T) {
		_, err := p.Parse([]byte("Name\n\"Ana\n"))
		assert.Error(t, err)
	})
}

func TestHeaderNames(t *testing.T) {
	tests := []struct {
		raw  []string
		want []string
	}{
		{[]string{"A", "B"}, []string{"A", "B"}},
		{[]string{"A", "A"}, []string{"A", "A.1"}},
		{[]string{"A", "A.1", "A"}, []string{"A", "A.1", "A.2"}},
		{[]string{"", " "}, []string{"Unnamed: 0", "Unnamed: 1"}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, headerNames(tt.raw), "headers %q", tt.raw)
	}
}
