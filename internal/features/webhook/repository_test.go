package webhook

import (
	"bytes"
	"context"
	"testing"
	"time"

	"crm-gateway/internal/common/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestSaveUpdate(t *testing.T) {
	event := &WebhookEvent{
		ID:           "evt-1",
		Type:         models.WebhookEventLeadUpdated,
		CrmAccountID: "acc-1",
		Timestamp:    time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC),
		Processed:    true,
	}

	update, err := saveUpdate(event)
	if err != nil {
		t.Fatal(err)
	}

	set := update["$set"].(bson.M)
	if _, ok := set["_id"]; ok {
		t.Error("_id must not be part of $set")
	}
	if set["crm_account_id"] != "acc-1" || set["processed"] != true {
		t.Errorf("unexpected $set: %v", set)
	}
	if _, ok := update["$unset"].(bson.M)["error"]; !ok {
		t.Error("an empty error must clear a previously stored one")
	}

	onInsert := update["$setOnInsert"].(bson.M)
	if _, ok := onInsert[insertedSeqField].(primitive.ObjectID); !ok {
		t.Fatalf("expected an ObjectID insertion sequence, got %v", onInsert)
	}

	event.Error = "sync failed"
	update, err = saveUpdate(event)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := update["$unset"]; ok {
		t.Error("a set error must not be unset")
	}
}

func TestSaveUpdateSequenceFollowsInsertion(t *testing.T) {
	// a later event with an earlier timestamp still sorts after the first insert
	first, _ := saveUpdate(&WebhookEvent{ID: "a", Timestamp: time.Date(2024, 5, 10, 10, 0, 0, 0, time.UTC)})
	second, _ := saveUpdate(&WebhookEvent{ID: "b", Timestamp: time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)})

	a := first["$setOnInsert"].(bson.M)[insertedSeqField].(primitive.ObjectID)
	b := second["$setOnInsert"].(bson.M)[insertedSeqField].(primitive.ObjectID)
	if bytes.Compare(a[:], b[:]) >= 0 {
		t.Errorf("insertion sequence must increase: %s then %s", a.Hex(), b.Hex())
	}

	sort := listOptions(10).Sort.(bson.D)
	if sort[0].Key != insertedSeqField || sort[0].Value != -1 {
		t.Errorf("listing must sort by insertion sequence, got %v", sort)
	}
}

func TestMemoryListKeepsInsertionOrder(t *testing.T) {
	repo := NewWebhookEventMemoryRepository()
	ctx := context.Background()
	base := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)

	for _, e := range []WebhookEvent{
		{ID: "a", Timestamp: base.Add(2 * time.Hour)},
		{ID: "b", Timestamp: base},
		{ID: "c", Timestamp: base.Add(time.Hour)},
	} {
		e := e
		if err := repo.Save(ctx, &e); err != nil {
			t.Fatal(err)
		}
	}
	// overwriting keeps the original position
	if err := repo.Save(ctx, &WebhookEvent{ID: "a", Timestamp: base, Processed: true}); err != nil {
		t.Fatal(err)
	}

	events, _ := repo.List(ctx, 2)
	if len(events) != 2 || events[0].ID != "b" || events[1].ID != "c" {
		t.Errorf("expected [b c], got %+v", events)
	}

	events, _ = repo.List(ctx, 0)
	if len(events) != 3 || events[0].ID != "a" || !events[0].Processed {
		t.Errorf("expected overwritten a first, got %+v", events)
	}
}
