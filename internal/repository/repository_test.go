package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"TripMate/internal/model"
)

type RepositorySuite struct {
	suite.Suite
	mock sqlmock.Sqlmock
	db   *gorm.DB
}

func (s *RepositorySuite) SetupTest() {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(s.T(), err)

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(s.T(), err)

	s.mock, s.db = mock, db
}

func (s *RepositorySuite) TearDownTest() {
	assert.NoError(s.T(), s.mock.ExpectationsWereMet())
}

func TestRepositorySuite(t *testing.T) {
	suite.Run(t, new(RepositorySuite))
}

func entryColumns() []string {
	return []string{"id", "trip_id", "day", "time", "title", "latitude", "longitude", "image_scale", "is_checked"}
}

func (s *RepositorySuite) TestListItineraryOrdersByDayTimeID() {
	rows := sqlmock.NewRows(entryColumns()).
		AddRow(int64(11), int64(7), 1, "09:00", "Airport", 35.55, 139.78, 400, false).
		AddRow(int64(12), int64(7), 1, nil, "Walk", nil, nil, 400, true)

	s.mock.ExpectQuery(`SELECT \* FROM "itinerary_entries" WHERE trip_id = \$1 .*ORDER BY day ASC, time ASC NULLS LAST, id ASC`).
		WithArgs(int64(7)).
		WillReturnRows(rows)

	repo := NewRecords[model.ItineraryEntry](s.db).WithOrder(OrderByItinerary)
	entries, err := repo.ListByTrip(context.Background(), 7)
	s.Require().NoError(err)
	s.Require().Len(entries, 2)

	s.Equal("09:00", *entries[0].Time)
	s.True(entries[0].HasCoordinates())
	s.Nil(entries[1].Time)
	s.False(entries[1].HasCoordinates())
	s.True(entries[1].IsChecked)
}

func (s *RepositorySuite) TestListLinkableByID() {
	rows := sqlmock.NewRows([]string{"id", "trip_id", "title", "amount", "linked_itinerary_id"}).
		AddRow(int64(21), int64(7), "Taxi", int64(12000), int64(11)).
		AddRow(int64(22), int64(7), "Dinner", int64(30000), nil)

	s.mock.ExpectQuery(`SELECT \* FROM "expenses" WHERE trip_id = \$1 .*ORDER BY id ASC`).
		WillReturnRows(rows)

	expenses, err := NewRecords[model.Expense](s.db).ListByTrip(context.Background(), 7)
	s.Require().NoError(err)
	s.Require().Len(expenses, 2)
	s.Equal(int64(11), *expenses[0].LinkedEntryID())
	s.Nil(expenses[1].LinkedEntryID())
}

func (s *RepositorySuite) TestUpdateRefetches() {
	s.mock.ExpectExec(`UPDATE "itinerary_entries" SET .*"is_checked"=\$1`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectQuery(`SELECT \* FROM "itinerary_entries" WHERE \(trip_id = \$1 AND id = \$2\)`).
		WillReturnRows(sqlmock.NewRows(entryColumns()).
			AddRow(int64(11), int64(7), 1, "09:00", "Airport", nil, nil, 400, true))

	repo := NewRecords[model.ItineraryEntry](s.db)
	entry, err := repo.Update(context.Background(), 7, 11, map[string]interface{}{"is_checked": true})
	s.Require().NoError(err)
	s.True(entry.IsChecked)
}

func (s *RepositorySuite) TestUpdateMissingRow() {
	s.mock.ExpectExec(`UPDATE "itinerary_entries"`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewRecords[model.ItineraryEntry](s.db)
	_, err := repo.Update(context.Background(), 7, 99, map[string]interface{}{"title": "x"})
	s.True(IsNotFound(err))
}

func (s *RepositorySuite) TestSoftDelete() {
	s.mock.ExpectExec(`UPDATE "shared_infos" SET "deleted_at"=\$1 WHERE \(trip_id = \$2 AND id = \$3\)`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := NewRecords[model.SharedInfo](s.db).Delete(context.Background(), 7, 31)
	s.NoError(err)
}

func (s *RepositorySuite) TestTripIDs() {
	s.mock.ExpectQuery(`SELECT "id" FROM "trips"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)).AddRow(int64(2)))

	ids, err := NewTripRepository(s.db).ListIDs(context.Background())
	s.Require().NoError(err)
	s.Equal([]int64{1, 2}, ids)
}

func (s *RepositorySuite) TestCheckedByEmptyInput() {
	out, err := NewCheckRepository(s.db).CheckedBy(context.Background(), 5, nil)
	s.NoError(err)
	s.Empty(out)
}
