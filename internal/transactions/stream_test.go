package transactions

import (
	"testing"

	"github.com/aws/aws-lambda-go/events"
)

func ttlRemoveRecord(image map[string]events.DynamoDBAttributeValue) events.DynamoDBEventRecord {
	return events.DynamoDBEventRecord{
		EventName: "REMOVE",
		Change:    events.DynamoDBStreamRecord{OldImage: image},
		UserIdentity: &events.DynamoDBUserIdentity{
			Type:        "Service",
			PrincipalID: "dynamodb.amazonaws.com",
		},
	}
}

func transactionImage(id string, status Status) map[string]events.DynamoDBAttributeValue {
	return map[string]events.DynamoDBAttributeValue{
		"pk":            events.NewStringAttribute(PartitionKey),
		"sk":            events.NewStringAttribute(id),
		"status":        events.NewStringAttribute(string(status)),
		"connection_id": events.NewStringAttribute("conn-1"),
		"expires_in":    events.NewNumberAttribute("300"),
		"ttl":           events.NewNumberAttribute("1709294520"),
		"created_at":    events.NewStringAttribute("2024-03-01T12:00:00Z"),
		"updated_at":    events.NewStringAttribute("2024-03-01T12:00:00Z"),
	}
}

func TestExpiredImage_DecodesTTLRemoval(t *testing.T) {
	tx, ok, err := ExpiredImage(ttlRemoveRecord(transactionImage("tx-1", StatusGenerated)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatalf("expected TTL removal to be recognised")
	}
	if tx.TransactionID != "tx-1" || tx.Status != StatusGenerated || tx.ConnectionID != "conn-1" {
		t.Fatalf("decoded transaction mismatch: %+v", tx)
	}
	if tx.ExpiresAt != 1709294520 || tx.ExpiresIn != 300 {
		t.Fatalf("numeric fields mismatch: %+v", tx)
	}
}

func TestExpiredImage_IgnoresOtherRecords(t *testing.T) {
	manual := ttlRemoveRecord(transactionImage("tx-2", StatusGenerated))
	manual.UserIdentity = nil

	modify := ttlRemoveRecord(transactionImage("tx-3", StatusGenerated))
	modify.EventName = "MODIFY"

	invoice := ttlRemoveRecord(map[string]events.DynamoDBAttributeValue{
		"pk": events.NewStringAttribute("#invoice_acme"),
		"sk": events.NewStringAttribute("INV-00001"),
	})

	for name, rec := range map[string]events.DynamoDBEventRecord{
		"manual delete": manual,
		"modify":        modify,
		"invoice item":  invoice,
	} {
		_, ok, err := ExpiredImage(rec)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", name, err)
		}
		if ok {
			t.Fatalf("%s: expected record to be ignored", name)
		}
	}
}

func TestFromStreamImage_Nested(t *testing.T) {
	image := map[string]events.DynamoDBAttributeValue{
		"m": events.NewMapAttribute(map[string]events.DynamoDBAttributeValue{
			"flag": events.NewBooleanAttribute(true),
		}),
		"l": events.NewListAttribute([]events.DynamoDBAttributeValue{
			events.NewStringAttribute("a"),
			events.NewNumberAttribute("2"),
		}),
	}
	out, err := FromStreamImage(image)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 attributes, got %d", len(out))
	}
}
