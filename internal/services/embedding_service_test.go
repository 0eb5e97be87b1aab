// internal/services/embedding_service_test.go
package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEmbeddingServiceWithoutKey(t *testing.T) {
	svc, err := NewEmbeddingService(context.Background(), "", "")
	require.NoError(t, err)
	require.NotNil(t, svc)
	assert.Equal(t, "gemini-embedding-001", svc.model)
}

func TestEmbeddingCallsFailWithoutKey(t *testing.T) {
	svc, err := NewEmbeddingService(context.Background(), "", "gemini-embedding-001")
	require.NoError(t, err)

	_, err = svc.EmbedQuery(context.Background(), "durée du travail")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")

	_, err = svc.EmbedDocuments(context.Background(), []string{"article premier"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}
