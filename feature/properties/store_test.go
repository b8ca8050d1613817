package properties

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to open mock sql db: %v", err)
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open gorm db: %v", err)
	}

	return gormDB, mock
}

func propertyRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "source_id", "brand", "lock_name", "location", "active"})
}

func TestActive(t *testing.T) {
	db, mock := setupMockDB(t)

	rows := propertyRows().
		AddRow(1, "Downtown Loft", "102", "smartthings", "Loft Front Door", "Downtown Loft", true).
		AddRow(2, "Lakeside Cabin", "101", "wyze", "Cabin Front Door", "", true)
	mock.ExpectQuery("SELECT \\* FROM `properties` WHERE active = \\?").
		WithArgs(true).
		WillReturnRows(rows)

	store := NewStore(db)
	props, err := store.Active(context.Background())
	require.NoError(t, err)
	require.Len(t, props, 2)
	assert.Equal(t, "Downtown Loft", props[0].Name)
	assert.Equal(t, "wyze", props[1].Brand)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActiveEmpty(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectQuery("SELECT \\* FROM `properties` WHERE active = \\?").
		WithArgs(true).
		WillReturnRows(propertyRows())

	store := NewStore(db)
	props, err := store.Active(context.Background())
	require.NoError(t, err)
	assert.Empty(t, props)
}

func TestByName(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectQuery("SELECT \\* FROM `properties` WHERE name = \\?").
		WithArgs("Lakeside Cabin", 1).
		WillReturnRows(propertyRows().
			AddRow(2, "Lakeside Cabin", "101", "wyze", "Cabin Front Door", "", false))

	store := NewStore(db)
	p, err := store.ByName(context.Background(), "Lakeside Cabin")
	require.NoError(t, err)
	assert.Equal(t, "101", p.SourceID)
	assert.False(t, p.Active)
}

func TestByNameMissing(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectQuery("SELECT \\* FROM `properties` WHERE name = \\?").
		WithArgs("Nowhere", 1).
		WillReturnRows(propertyRows())

	store := NewStore(db)
	_, err := store.ByName(context.Background(), "Nowhere")
	require.Error(t, err)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUpsert(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `properties`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	store := NewStore(db)
	err := store.Upsert(context.Background(), &Property{
		Name:     "Lakeside Cabin",
		SourceID: "101",
		Brand:    "wyze",
		LockName: "Cabin Front Door",
		Active:   true,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
