package shared

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAuditLogValidate(t *testing.T) {
	require.Error(t, AuditLog{Action: "caja.open"}.Validate())
	require.NoError(t, AuditLog{Action: "caja.open", Entity: "caja_sesion", EntityID: "1"}.Validate())
}

func TestAuditLoggerRequiresPool(t *testing.T) {
	var logger *AuditLogger
	require.Error(t, logger.Record(context.Background(), AuditLog{Action: "a", Entity: "b", EntityID: "c"}))
}

func TestPagination(t *testing.T) {
	p := NewPagination(0, 0, 60, 200)
	require.Equal(t, 1, p.Page)
	require.Equal(t, 60, p.Limit)
	require.Equal(t, 0, p.Offset())

	p = NewPagination(3, 500, 60, 200)
	require.Equal(t, 200, p.Limit)
	require.Equal(t, 400, p.Offset())
	require.Equal(t, 3, p.TotalPages(401))
}
