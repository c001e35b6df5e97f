package merge

import (
	"bytes"
	"context"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alde/tinypdf/internal/pdftest"
)

func TestMergeRequiresTwoInputs(t *testing.T) {
	for _, inputs := range [][]Input{
		nil,
		{{Name: "only.pdf", Data: pdftest.Pages(1, pdftest.Letter)}},
	} {
		result, err := Merge(context.Background(), inputs)
		assert.Nil(t, result)
		assert.ErrorIs(t, err, ErrTooFewInputs)
	}
}

func TestMergeConcatenatesPages(t *testing.T) {
	inputs := []Input{
		{Name: "a.pdf", Data: pdftest.Pages(2, pdftest.Letter)},
		{Name: "b.pdf", Data: pdftest.Pages(3, pdftest.Page{Width: 842, Height: 595})},
		{Name: "c.pdf", Data: pdftest.Pages(1, pdftest.Letter)},
	}

	result, err := Merge(context.Background(), inputs)
	require.NoError(t, err)

	assert.Equal(t, 6, result.PageCount)
	require.Len(t, result.Inputs, 3)
	assert.Equal(t, "b.pdf", result.Inputs[1].Name)
	assert.Equal(t, 3, result.Inputs[1].PageCount)

	count, err := api.PageCount(bytes.NewReader(result.Output), configuration())
	require.NoError(t, err)
	assert.Equal(t, 6, count)
}

func TestMergeNamesCorruptInput(t *testing.T) {
	inputs := []Input{
		{Name: "good.pdf", Data: pdftest.Pages(1, pdftest.Letter)},
		{Name: "broken.pdf", Data: []byte("this is not a pdf")},
	}

	_, err := Merge(context.Background(), inputs)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCorruptDocument)
	assert.Contains(t, err.Error(), "broken.pdf")
}

func encrypt(t *testing.T, data []byte, userPW, ownerPW string) []byte {
	t.Helper()
	conf := model.NewAESConfiguration(userPW, ownerPW, 256)
	conf.Permissions = model.PermissionsAll
	var buf bytes.Buffer
	require.NoError(t, api.Encrypt(bytes.NewReader(data), &buf, conf))
	return buf.Bytes()
}

func TestMergeEncryptedInput(t *testing.T) {
	locked := encrypt(t, pdftest.Pages(2, pdftest.Letter), "open", "master")
	inputs := []Input{
		{Name: "plain.pdf", Data: pdftest.Pages(1, pdftest.Letter)},
		{Name: "locked.pdf", Data: locked},
	}

	t.Run("without password", func(t *testing.T) {
		_, err := Merge(context.Background(), inputs)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrEncrypted)
		assert.Contains(t, err.Error(), "locked.pdf")
	})

	t.Run("with password", func(t *testing.T) {
		m := New(zerolog.Nop())
		m.Password = "open"

		result, err := m.Merge(context.Background(), inputs)
		require.NoError(t, err)
		assert.Equal(t, 3, result.PageCount)

		count, err := api.PageCount(bytes.NewReader(result.Output), configuration())
		require.NoError(t, err)
		assert.Equal(t, 3, count)
	})
}

func TestMergePermissionRestrictedInputWithoutPassword(t *testing.T) {
	restricted := encrypt(t, pdftest.Pages(2, pdftest.Letter), "", "master")

	result, err := Merge(context.Background(), []Input{
		{Name: "restricted.pdf", Data: restricted},
		{Name: "plain.pdf", Data: pdftest.Pages(1, pdftest.Letter)},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, result.PageCount)
}

func TestMergeHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Merge(ctx, []Input{
		{Name: "a.pdf", Data: pdftest.Pages(1, pdftest.Letter)},
		{Name: "b.pdf", Data: pdftest.Pages(1, pdftest.Letter)},
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOptimizeNeverGrows(t *testing.T) {
	data := pdftest.Pages(4, pdftest.Letter)

	optimized, err := Optimize(data)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(optimized), len(data))

	count, err := api.PageCount(bytes.NewReader(optimized), configuration())
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}
