package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/pkg/config"
)

func TestPoolConfig(t *testing.T) {
	t.Run("desde DB_HOST y afines", func(t *testing.T) {
		pc, err := poolConfig(config.DBConfig{
			Host: "db", Port: 5433, User: "ledger", Password: "p@ss", DBName: "inventario", SSLMode: "disable",
		})
		require.NoError(t, err)
		assert.Equal(t, "db", pc.ConnConfig.Host)
		assert.Equal(t, uint16(5433), pc.ConnConfig.Port)
		assert.Equal(t, "p@ss", pc.ConnConfig.Password)
		assert.Equal(t, int32(defaultMaxConns), pc.MaxConns)
		assert.Equal(t, applicationName, pc.ConnConfig.RuntimeParams["application_name"])
		assert.NotNil(t, pc.AfterConnect, "el codec decimal se registra al conectar")
	})

	t.Run("DATABASE_URL tiene prioridad", func(t *testing.T) {
		pc, err := poolConfig(config.DBConfig{
			DatabaseURL: "postgres://u:p@pg.interno:5432/ledger?sslmode=disable&application_name=worker",
			Host:        "ignorado",
			MaxConns:    1,
		})
		require.NoError(t, err)
		assert.Equal(t, "pg.interno", pc.ConnConfig.Host)
		assert.Equal(t, int32(1), pc.MaxConns)
		assert.Equal(t, int32(1), pc.MinConns, "el mínimo no supera al máximo")
		assert.Equal(t, "worker", pc.ConnConfig.RuntimeParams["application_name"])
	})

	t.Run("DSN inválido", func(t *testing.T) {
		_, err := poolConfig(config.DBConfig{DatabaseURL: "postgres://u:p@host:puerto/db"})
		assert.Error(t, err)
	})
}
