package sqlguard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loyaltyiq/loyalty-engine/pkg/models"
)

func TestValidateQuestion(t *testing.T) {
	t.Run("clean question passes", func(t *testing.T) {
		assert.Nil(t, ValidateQuestion("How many points did my customers earn last week?"))
	})

	t.Run("client_id reference rejected", func(t *testing.T) {
		err := ValidateQuestion("What is client_id 42's balance?")
		require.NotNil(t, err)
		assert.Equal(t, models.ErrTypeClientIDViolation, err.Type)
	})

	t.Run("id specification rejected", func(t *testing.T) {
		tests := []string{
			"Show me the balance for id 123",
			"What did customer id = 99 redeem?",
			"Points for client number 7",
			"Show points for customer number 99",
			"Balance for account: 12345",
		}
		for _, q := range tests {
			err := ValidateQuestion(q)
			require.NotNil(t, err, "question %q should be rejected", q)
			assert.Equal(t, models.ErrTypeIDViolation, err.Type)
		}
	})

	t.Run("dangerous command rejected", func(t *testing.T) {
		err := ValidateQuestion("Please drop table customers")
		require.NotNil(t, err)
		assert.Equal(t, models.ErrTypeSecurityViolation, err.Type)
	})

	t.Run("injection attempt rejected", func(t *testing.T) {
		err := ValidateQuestion("points'; DELETE FROM customers WHERE '1'='1")
		require.NotNil(t, err)
		assert.Equal(t, models.ErrTypeSecurityViolation, err.Type)
	})
}

func TestValidateSQL(t *testing.T) {
	t.Run("filtered select passes", func(t *testing.T) {
		sql := "SELECT SUM(points) FROM points_transactions WHERE client_id = 5252"
		assert.Nil(t, ValidateSQL(sql, 5252))
	})

	t.Run("quoted client_id filter passes", func(t *testing.T) {
		sql := "SELECT COUNT(*) FROM customers WHERE client_id = '5252'"
		assert.Nil(t, ValidateSQL(sql, 5252))
	})

	t.Run("missing client_id filter rejected", func(t *testing.T) {
		err := ValidateSQL("SELECT SUM(points) FROM points_transactions", 5252)
		require.NotNil(t, err)
		assert.Equal(t, models.ErrTypeMissingClientID, err.Type)
	})

	t.Run("wrong client_id rejected", func(t *testing.T) {
		err := ValidateSQL("SELECT * FROM customers WHERE client_id = 42", 5252)
		require.NotNil(t, err)
		assert.Equal(t, models.ErrTypeMissingClientID, err.Type)
	})

	t.Run("write operation rejected", func(t *testing.T) {
		err := ValidateSQL("DELETE FROM customers WHERE client_id = 5252", 5252)
		require.NotNil(t, err)
		assert.Equal(t, models.ErrTypeDangerousOperation, err.Type)
	})

	t.Run("statement chaining rejected", func(t *testing.T) {
		err := ValidateSQL("SELECT 1 WHERE client_id = 5252; SELECT 2", 5252)
		require.NotNil(t, err)
		assert.Equal(t, models.ErrTypeDangerousOperation, err.Type)
	})

	t.Run("semicolon inside string literal allowed", func(t *testing.T) {
		sql := "SELECT * FROM campaigns WHERE client_id = 5252 AND name = 'a;b'"
		assert.Nil(t, ValidateSQL(sql, 5252))
	})
}

func TestNormalizeSQL(t *testing.T) {
	assert.Equal(t, "SELECT 1", NormalizeSQL("  SELECT 1;  "))
	assert.Equal(t, "SELECT 1", NormalizeSQL("SELECT 1"))
}
