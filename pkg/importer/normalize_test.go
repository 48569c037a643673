package importer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDate(t *testing.T) {
	t.Run("date cell", func(t *testing.T) {
		c := Cell{Kind: CellDate, Date: time.Date(2021, 6, 15, 10, 30, 0, 0, time.UTC)}
		got := NormalizeDate(c)
		require.NotNil(t, got)
		assert.Equal(t, "2021-06-15", *got)
	})

	t.Run("serial number cell", func(t *testing.T) {
		// 44197 days past 1899-12-30 is 2021-01-01
		got := NormalizeDate(num(44197))
		require.NotNil(t, got)
		assert.Equal(t, "2021-01-01", *got)
	})

	t.Run("small serial lands before 1970 and is dropped", func(t *testing.T) {
		assert.Nil(t, NormalizeDate(num(2)))
	})

	t.Run("text layouts", func(t *testing.T) {
		for in, want := range map[string]string{
			"2022-03-04":    "2022-03-04",
			"3/4/2022":      "2022-03-04",
			"03/04/2022":    "2022-03-04",
			"3/4/22":        "2022-03-04",
			"March 4, 2022": "2022-03-04",
			"Mar 4, 2022":   "2022-03-04",
			"4-Mar-2022":    "2022-03-04",
		} {
			got := NormalizeDate(text(in))
			require.NotNil(t, got, "input %q", in)
			assert.Equal(t, want, *got, "input %q", in)
		}
	})

	t.Run("unparseable text", func(t *testing.T) {
		assert.Nil(t, NormalizeDate(text("next week")))
		assert.Nil(t, NormalizeDate(text("-002-12-30")))
		assert.Nil(t, NormalizeDate(text("")))
	})

	t.Run("pre-1970 text date", func(t *testing.T) {
		assert.Nil(t, NormalizeDate(text("1969-12-31")))
	})

	t.Run("blank cell", func(t *testing.T) {
		assert.Nil(t, NormalizeDate(Cell{}))
	})
}

func TestNormalizePrice(t *testing.T) {
	t.Run("number cell", func(t *testing.T) {
		got := NormalizePrice(num(450))
		require.NotNil(t, got)
		assert.Equal(t, "450", got.String())
	})

	t.Run("currency text", func(t *testing.T) {
		got := NormalizePrice(text("$1,234.50"))
		require.NotNil(t, got)
		assert.Equal(t, "1234.50", got.String())
	})

	t.Run("negative dropped", func(t *testing.T) {
		assert.Nil(t, NormalizePrice(num(-5)))
		assert.Nil(t, NormalizePrice(text("-$20")))
	})

	t.Run("non-numeric text", func(t *testing.T) {
		assert.Nil(t, NormalizePrice(text("call vendor")))
	})

	t.Run("blank cell", func(t *testing.T) {
		assert.Nil(t, NormalizePrice(Cell{}))
	})
}

func TestScrubDate(t *testing.T) {
	ok := "2020-01-02"
	bad := "-002-12-30"
	plus := "+10000-01-01"

	assert.Equal(t, &ok, ScrubDate(&ok))
	assert.Nil(t, ScrubDate(&bad))
	assert.Nil(t, ScrubDate(&plus))
	assert.Nil(t, ScrubDate(nil))
}
