package store

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kindred/models"
)

func TestCreateAndGet(t *testing.T) {
	mem := NewMemory()
	ctx := context.Background()

	id, err := mem.Create(ctx, Users, Document{"name": "Ada"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	doc, err := mem.Get(ctx, Users, id)
	require.NoError(t, err)
	assert.Equal(t, "Ada", doc["name"])
	assert.Equal(t, id, doc["_id"])
}

func TestCreateHonorsPresetID(t *testing.T) {
	mem := NewMemory()
	ctx := context.Background()

	id, err := mem.Create(ctx, Locations, Document{"_id": "u1", "visible": true})
	require.NoError(t, err)
	assert.Equal(t, "u1", id)
}

func TestGetMissing(t *testing.T) {
	mem := NewMemory()
	_, err := mem.Get(context.Background(), Users, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestQueryPredicates(t *testing.T) {
	mem := NewMemory()
	ctx := context.Background()

	_, err := mem.Create(ctx, Connections, Document{"status": "pending", "participants": []string{"a", "b"}})
	require.NoError(t, err)
	_, err = mem.Create(ctx, Connections, Document{"status": "accepted", "participants": []string{"a", "c"}})
	require.NoError(t, err)

	docs, err := mem.Query(ctx, Connections, Eq("status", "pending"))
	require.NoError(t, err)
	assert.Len(t, docs, 1)

	docs, err = mem.Query(ctx, Connections, Contains("participants", "a"))
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	docs, err = mem.Query(ctx, Connections, Contains("participants", "c"), Eq("status", "accepted"))
	require.NoError(t, err)
	assert.Len(t, docs, 1)

	docs, err = mem.Query(ctx, Connections, Eq("status", "declined"))
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestQueryInsertionOrder(t *testing.T) {
	mem := NewMemory()
	ctx := context.Background()

	ids := make([]string, 5)
	for i := range ids {
		id, err := mem.Create(ctx, Messages, Document{"chatId": "c1", "n": i})
		require.NoError(t, err)
		ids[i] = id
	}

	docs, err := mem.Query(ctx, Messages, Eq("chatId", "c1"))
	require.NoError(t, err)
	require.Len(t, docs, 5)
	for i, doc := range docs {
		assert.Equal(t, ids[i], doc["_id"])
	}

	// Deleting and re-inserting keeps the order deterministic: the new
	// document sorts last.
	require.NoError(t, mem.Delete(ctx, Messages, ids[2]))
	newID, err := mem.Create(ctx, Messages, Document{"chatId": "c1", "n": 99})
	require.NoError(t, err)

	docs, err = mem.Query(ctx, Messages, Eq("chatId", "c1"))
	require.NoError(t, err)
	require.Len(t, docs, 5)
	assert.Equal(t, newID, docs[4]["_id"])
}

func TestQueryReturnsCopies(t *testing.T) {
	mem := NewMemory()
	ctx := context.Background()

	id, err := mem.Create(ctx, Users, Document{"name": "Ada", "interests": []string{"math"}})
	require.NoError(t, err)

	docs, err := mem.Query(ctx, Users)
	require.NoError(t, err)
	docs[0]["name"] = "mutated"

	doc, err := mem.Get(ctx, Users, id)
	require.NoError(t, err)
	assert.Equal(t, "Ada", doc["name"])
}

func TestUpdatePartial(t *testing.T) {
	mem := NewMemory()
	ctx := context.Background()

	id, err := mem.Create(ctx, Users, Document{"name": "Ada", "bio": "original"})
	require.NoError(t, err)

	require.NoError(t, mem.Update(ctx, Users, id, Document{"bio": "changed"}))
	doc, err := mem.Get(ctx, Users, id)
	require.NoError(t, err)
	assert.Equal(t, "Ada", doc["name"])
	assert.Equal(t, "changed", doc["bio"])

	assert.ErrorIs(t, mem.Update(ctx, Users, "nope", Document{"x": 1}), ErrNotFound)
}

func TestUpdateWhereCAS(t *testing.T) {
	mem := NewMemory()
	ctx := context.Background()

	id, err := mem.Create(ctx, Connections, Document{"status": "pending"})
	require.NoError(t, err)

	ok, err := mem.UpdateWhere(ctx, Connections, id,
		[]Predicate{Eq("status", "pending")}, Document{"status": "accepted"})
	require.NoError(t, err)
	assert.True(t, ok)

	// Second transition no longer matches.
	ok, err = mem.UpdateWhere(ctx, Connections, id,
		[]Predicate{Eq("status", "pending")}, Document{"status": "accepted"})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUpdateWhereConcurrentSingleWinner(t *testing.T) {
	mem := NewMemory()
	ctx := context.Background()

	id, err := mem.Create(ctx, Connections, Document{"status": "pending"})
	require.NoError(t, err)

	const n = 16
	wins := make([]bool, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			wins[i], _ = mem.UpdateWhere(ctx, Connections, id,
				[]Predicate{Eq("status", "pending")}, Document{"status": "accepted"})
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, w := range wins {
		if w {
			winners++
		}
	}
	assert.Equal(t, 1, winners)
}

func TestDelete(t *testing.T) {
	mem := NewMemory()
	ctx := context.Background()

	id, err := mem.Create(ctx, Users, Document{"name": "Ada"})
	require.NoError(t, err)
	require.NoError(t, mem.Delete(ctx, Users, id))

	_, err = mem.Get(ctx, Users, id)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, mem.Delete(ctx, Users, id), ErrNotFound)
}

func TestServerTimestampResolved(t *testing.T) {
	mem := NewMemory()
	mem.NowFunc = func() int64 { return 12345 }
	ctx := context.Background()

	id, err := mem.Create(ctx, Users, Document{"createdAt": mem.ServerTimestamp()})
	require.NoError(t, err)

	doc, err := mem.Get(ctx, Users, id)
	require.NoError(t, err)
	assert.Equal(t, int64(12345), doc["createdAt"])
}

func TestSubscribe(t *testing.T) {
	mem := NewMemory()
	ctx := context.Background()

	var mu sync.Mutex
	var changes []Change
	stop, err := mem.Subscribe(ctx, Connections, []Predicate{Eq("receiverId", "bob")}, func(c Change) {
		mu.Lock()
		changes = append(changes, c)
		mu.Unlock()
	})
	require.NoError(t, err)
	defer stop()

	id, err := mem.Create(ctx, Connections, Document{"receiverId": "bob", "status": "pending"})
	require.NoError(t, err)
	_, err = mem.Create(ctx, Connections, Document{"receiverId": "carol", "status": "pending"})
	require.NoError(t, err)
	require.NoError(t, mem.Update(ctx, Connections, id, Document{"status": "accepted"}))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, changes, 2)
	assert.Equal(t, ChangeCreated, changes[0].Kind)
	assert.Equal(t, id, changes[0].ID)
	assert.Equal(t, ChangeUpdated, changes[1].Kind)
	assert.Equal(t, "accepted", changes[1].Doc["status"])
}

func TestSubscribeStop(t *testing.T) {
	mem := NewMemory()
	ctx := context.Background()

	fired := false
	stop, err := mem.Subscribe(ctx, Users, nil, func(Change) { fired = true })
	require.NoError(t, err)
	stop()

	_, err = mem.Create(ctx, Users, Document{"name": "Ada"})
	require.NoError(t, err)
	assert.False(t, fired)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	req := models.ConnectionRequest{
		PairKey:         "a_b",
		SenderID:        "a",
		ReceiverID:      "b",
		Status:          models.StatusPending,
		Tier:            models.TierFriend,
		SharedInterests: []string{"hiking"},
	}
	doc, err := Encode(&req)
	require.NoError(t, err)
	assert.Equal(t, "a_b", doc["pairKey"])
	// Unset omitempty id stays out of the document.
	_, hasID := doc["_id"]
	assert.False(t, hasID)
	// ChatRoomID has no omitempty: the empty string is persisted so the
	// provisioning claim can match it.
	assert.Equal(t, "", doc["chatRoomId"])

	var back models.ConnectionRequest
	require.NoError(t, Decode(doc, &back))
	assert.Equal(t, req.Tier, back.Tier)
	assert.Equal(t, req.Status, back.Status)
}

func TestDecodeAfterMemoryRoundTrip(t *testing.T) {
	mem := NewMemory()
	ctx := context.Background()

	id, err := mem.Create(ctx, Locations, Document{
		"_id":        "u1",
		"coordinate": Document{"lat": 40.5, "lng": -73.5},
		"visible":    true,
	})
	require.NoError(t, err)

	doc, err := mem.Get(ctx, Locations, id)
	require.NoError(t, err)

	var rec models.LocationRecord
	require.NoError(t, Decode(doc, &rec))
	assert.Equal(t, "u1", rec.UID)
	require.NotNil(t, rec.Coordinate)
	assert.Equal(t, 40.5, rec.Coordinate.Lat)
	assert.True(t, rec.Visible)
}
