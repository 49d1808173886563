package quest

import (
	"context"
	"fmt"
	"testing"

	"github.com/sojrpg/server/model"
	"github.com/sojrpg/server/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedCharacter(t *testing.T, db *gorm.DB, name string) *model.Character {
	t.Helper()
	char := &model.Character{
		CharacterProfileID: 1,
		Name:               name,
		HomeTownID:         1,
		RaceID:             1,
	}
	require.NoError(t, db.Create(char).Error)
	return char
}

func TestJoinLocation_FirstJoin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	l := NewLedger(db)
	ctx := context.Background()

	row, err := l.JoinLocation(ctx, 1, 10)
	require.NoError(t, err)
	assert.Nil(t, row.DateDeparted)

	current, err := l.CurrentLocation(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, int64(10), current.LocationID)
}

func TestJoinLocation_WhileOccupied(t *testing.T) {
	db := testutil.SetupTestDB(t)
	l := NewLedger(db)
	ctx := context.Background()

	_, err := l.JoinLocation(ctx, 1, 10)
	require.NoError(t, err)

	_, err = l.JoinLocation(ctx, 1, 10)
	assert.ErrorIs(t, err, ErrAlreadyAtLocation)

	_, err = l.JoinLocation(ctx, 1, 20)
	assert.ErrorIs(t, err, ErrLocationActive)
}

func TestDepartLocation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	l := NewLedger(db)
	ctx := context.Background()

	_, err := l.DepartLocation(ctx, 1)
	assert.ErrorIs(t, err, ErrNoActiveLocation)

	_, err = l.JoinLocation(ctx, 1, 10)
	require.NoError(t, err)

	departed, err := l.DepartLocation(ctx, 1)
	require.NoError(t, err)
	assert.NotNil(t, departed.DateDeparted)

	current, err := l.CurrentLocation(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, current)

	// The ledger row survives departure.
	history, err := l.LocationHistory(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestLocationHistory_ReentryAllowed(t *testing.T) {
	db := testutil.SetupTestDB(t)
	l := NewLedger(db)
	ctx := context.Background()

	for _, locID := range []int64{10, 20, 10} {
		if current, _ := l.CurrentLocation(ctx, 1); current != nil {
			_, err := l.DepartLocation(ctx, 1)
			require.NoError(t, err)
		}
		_, err := l.JoinLocation(ctx, 1, locID)
		require.NoError(t, err)
	}

	history, err := l.LocationHistory(ctx, 1)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, int64(10), history[0].LocationID)
	assert.Equal(t, int64(20), history[1].LocationID)
	assert.Equal(t, int64(10), history[2].LocationID)
	assert.Nil(t, history[2].DateDeparted)

	former, err := l.FormerLocations(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, former, 2)
}

func seedQuest(t *testing.T, db *gorm.DB, title string) *model.Quest {
	t.Helper()
	q := &model.Quest{Title: title, Slug: Slugify(title), GMProfileID: 1}
	require.NoError(t, db.Create(q).Error)
	return q
}

func TestCurrentQuestsAtLocation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	l := NewLedger(db)
	ctx := context.Background()

	q1 := seedQuest(t, db, "Quest One")
	q2 := seedQuest(t, db, "Quest Two")
	q3 := seedQuest(t, db, "Quest Three")

	for _, q := range []*model.Quest{q1, q2, q3} {
		_, err := l.JoinLocation(ctx, q.ID, 10)
		require.NoError(t, err)
	}
	_, err := l.DepartLocation(ctx, q3.ID)
	require.NoError(t, err)
	_, err = l.JoinLocation(ctx, q3.ID, 20)
	require.NoError(t, err)

	at10, err := l.CurrentQuests(ctx, 10)
	require.NoError(t, err)
	require.Len(t, at10, 2)
	// Arrival order.
	assert.Equal(t, q1.ID, at10[0].ID)
	assert.Equal(t, q2.ID, at10[1].ID)

	at20, err := l.CurrentQuests(ctx, 20)
	require.NoError(t, err)
	require.Len(t, at20, 1)
	assert.Equal(t, q3.ID, at20[0].ID)
}

func TestFormerQuestsAtLocation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	l := NewLedger(db)
	ctx := context.Background()

	q1 := seedQuest(t, db, "Quest One")
	q2 := seedQuest(t, db, "Quest Two")

	// q1 passes through location 10; q2 stays there.
	_, err := l.JoinLocation(ctx, q1.ID, 10)
	require.NoError(t, err)
	_, err = l.DepartLocation(ctx, q1.ID)
	require.NoError(t, err)
	_, err = l.JoinLocation(ctx, q1.ID, 20)
	require.NoError(t, err)
	_, err = l.JoinLocation(ctx, q2.ID, 10)
	require.NoError(t, err)

	former, err := l.FormerQuests(ctx, 10)
	require.NoError(t, err)
	require.Len(t, former, 1)
	assert.Equal(t, q1.ID, former[0].ID)

	former, err = l.FormerQuests(ctx, 20)
	require.NoError(t, err)
	assert.Empty(t, former)
}

func TestFormerQuests_ReturnStaysInHistory(t *testing.T) {
	db := testutil.SetupTestDB(t)
	l := NewLedger(db)
	ctx := context.Background()

	q := seedQuest(t, db, "Circling Back")
	for _, locID := range []int64{10, 20, 10} {
		if current, _ := l.CurrentLocation(ctx, q.ID); current != nil {
			_, err := l.DepartLocation(ctx, q.ID)
			require.NoError(t, err)
		}
		_, err := l.JoinLocation(ctx, q.ID, locID)
		require.NoError(t, err)
	}

	// Back at 10: current there, and still former there from the
	// departed first visit.
	current, err := l.CurrentQuests(ctx, 10)
	require.NoError(t, err)
	require.Len(t, current, 1)

	former, err := l.FormerQuests(ctx, 10)
	require.NoError(t, err)
	require.Len(t, former, 1)
	assert.Equal(t, q.ID, former[0].ID)
}

func TestJoinCharacter_OneActiveQuestAcrossAll(t *testing.T) {
	db := testutil.SetupTestDB(t)
	l := NewLedger(db)
	ctx := context.Background()

	_, err := l.JoinCharacter(ctx, 1, 100)
	require.NoError(t, err)

	// Same quest again.
	_, err = l.JoinCharacter(ctx, 1, 100)
	assert.ErrorIs(t, err, ErrCharacterOnThisQuest)

	// Any other quest while active.
	_, err = l.JoinCharacter(ctx, 2, 100)
	assert.ErrorIs(t, err, ErrCharacterOnQuest)

	// Departing frees the character for any quest.
	_, err = l.DepartCharacter(ctx, 1, 100)
	require.NoError(t, err)
	_, err = l.JoinCharacter(ctx, 2, 100)
	assert.NoError(t, err)
}

func TestDepartCharacter_NotActive(t *testing.T) {
	db := testutil.SetupTestDB(t)
	l := NewLedger(db)
	ctx := context.Background()

	_, err := l.DepartCharacter(ctx, 1, 100)
	assert.ErrorIs(t, err, ErrNotOnQuest)

	_, err = l.JoinCharacter(ctx, 1, 100)
	require.NoError(t, err)
	_, err = l.DepartCharacter(ctx, 1, 100)
	require.NoError(t, err)

	// Departing twice finds no active row.
	_, err = l.DepartCharacter(ctx, 1, 100)
	assert.ErrorIs(t, err, ErrNotOnQuest)
}

func TestCurrentAndFormerCharacters(t *testing.T) {
	db := testutil.SetupTestDB(t)
	l := NewLedger(db)
	ctx := context.Background()

	var chars []*model.Character
	for i := 0; i < 3; i++ {
		chars = append(chars, seedCharacter(t, db, fmt.Sprintf("Member %d", i)))
	}
	for _, c := range chars {
		_, err := l.JoinCharacter(ctx, 1, c.ID)
		require.NoError(t, err)
	}

	current, err := l.CurrentCharacters(ctx, 1)
	require.NoError(t, err)
	require.Len(t, current, 3)
	// Join order.
	assert.Equal(t, chars[0].ID, current[0].ID)
	assert.Equal(t, chars[2].ID, current[2].ID)

	_, err = l.DepartCharacter(ctx, 1, chars[1].ID)
	require.NoError(t, err)

	current, err = l.CurrentCharacters(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, current, 2)

	former, err := l.FormerCharacters(ctx, 1)
	require.NoError(t, err)
	require.Len(t, former, 1)
	assert.Equal(t, chars[1].ID, former[0].ID)
}

func TestFormerCharacters_RejoinStaysInHistory(t *testing.T) {
	db := testutil.SetupTestDB(t)
	l := NewLedger(db)
	ctx := context.Background()

	c := seedCharacter(t, db, "Wanderer")
	_, err := l.JoinCharacter(ctx, 1, c.ID)
	require.NoError(t, err)
	_, err = l.DepartCharacter(ctx, 1, c.ID)
	require.NoError(t, err)
	_, err = l.JoinCharacter(ctx, 1, c.ID)
	require.NoError(t, err)

	// Active again, and still a former member: the departed row is
	// part of the quest's history.
	current, err := l.CurrentCharacters(ctx, 1)
	require.NoError(t, err)
	require.Len(t, current, 1)

	former, err := l.FormerCharacters(ctx, 1)
	require.NoError(t, err)
	require.Len(t, former, 1)
	assert.Equal(t, c.ID, former[0].ID)

	history, err := l.MembershipHistory(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}
