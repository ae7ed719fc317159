package llm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arlegis/billbot/pkg/llm"
)

func TestNewWithConfig(t *testing.T) {
	config := llm.ChatConfig{
		Model:          "testmodel",
		Temperature:    0.5,
		MaxTokens:      1000,
		SystemTemplate: "Test system template",
		BaseURL:        "http://localhost:1234",
	}
	engine, err := llm.NewWithConfig(config)
	assert.NoError(t, err)
	assert.NotNil(t, engine)
}

func TestNewWithConfigRejectsBadTemperature(t *testing.T) {
	_, err := llm.NewWithConfig(llm.ChatConfig{
		Model:       "testmodel",
		Temperature: 1.5,
	})
	assert.Error(t, err)
}

func TestNewWithConfigRejectsNegativeTokens(t *testing.T) {
	_, err := llm.NewWithConfig(llm.ChatConfig{
		Model:       "testmodel",
		Temperature: 0.5,
		MaxTokens:   -1,
	})
	assert.Error(t, err)
}

func TestNewEmbedderWithConfig(t *testing.T) {
	emb, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{
		Model:   "nomic-embed-text:latest",
		BaseURL: "http://localhost:11434",
	})
	assert.NoError(t, err)
	assert.NotNil(t, emb)
	assert.NotNil(t, emb.Embed)
}

func TestFlattenEmbeddings(t *testing.T) {
	emb, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{})
	assert.NoError(t, err)

	flat := emb.FlattenEmbeddings([][]float32{{1, 2}, {3}})
	assert.Equal(t, []float32{1, 2, 3}, flat)

	assert.Nil(t, emb.FlattenEmbeddings(nil))
}
