package transactions

import (
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Stream record fields DynamoDB sets on deletions performed by the TTL process.
const (
	ttlIdentityType      = "Service"
	ttlIdentityPrincipal = "dynamodb.amazonaws.com"
)

// ExpiredImage returns the last image of a transaction record that DynamoDB
// TTL removed. ok is false for any other stream record: inserts, updates,
// manual deletes, and items outside the transaction partition.
func ExpiredImage(rec events.DynamoDBEventRecord) (tx Transaction, ok bool, err error) {
	if rec.EventName != string(events.DynamoDBOperationTypeRemove) {
		return Transaction{}, false, nil
	}
	if rec.UserIdentity == nil || rec.UserIdentity.Type != ttlIdentityType || rec.UserIdentity.PrincipalID != ttlIdentityPrincipal {
		return Transaction{}, false, nil
	}
	image := rec.Change.OldImage
	if pk, found := image["pk"]; !found || pk.DataType() != events.DataTypeString || pk.String() != PartitionKey {
		return Transaction{}, false, nil
	}

	item, err := FromStreamImage(image)
	if err != nil {
		return Transaction{}, false, err
	}
	if err := attributevalue.UnmarshalMap(item, &tx); err != nil {
		return Transaction{}, false, fmt.Errorf("unmarshal stream image: %w", err)
	}
	return tx, true, nil
}

// FromStreamImage converts a Lambda stream image into SDK attribute values so
// the regular attributevalue decoder can be used on it.
func FromStreamImage(image map[string]events.DynamoDBAttributeValue) (map[string]types.AttributeValue, error) {
	out := make(map[string]types.AttributeValue, len(image))
	for k, v := range image {
		av, err := convert(v)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", k, err)
		}
		out[k] = av
	}
	return out, nil
}

func convert(v events.DynamoDBAttributeValue) (types.AttributeValue, error) {
	switch v.DataType() {
	case events.DataTypeString:
		return &types.AttributeValueMemberS{Value: v.String()}, nil
	case events.DataTypeNumber:
		return &types.AttributeValueMemberN{Value: v.Number()}, nil
	case events.DataTypeBoolean:
		return &types.AttributeValueMemberBOOL{Value: v.Boolean()}, nil
	case events.DataTypeNull:
		return &types.AttributeValueMemberNULL{Value: true}, nil
	case events.DataTypeBinary:
		return &types.AttributeValueMemberB{Value: v.Binary()}, nil
	case events.DataTypeStringSet:
		return &types.AttributeValueMemberSS{Value: v.StringSet()}, nil
	case events.DataTypeNumberSet:
		return &types.AttributeValueMemberNS{Value: v.NumberSet()}, nil
	case events.DataTypeBinarySet:
		return &types.AttributeValueMemberBS{Value: v.BinarySet()}, nil
	case events.DataTypeList:
		list := v.List()
		out := make([]types.AttributeValue, 0, len(list))
		for _, item := range list {
			av, err := convert(item)
			if err != nil {
				return nil, err
			}
			out = append(out, av)
		}
		return &types.AttributeValueMemberL{Value: out}, nil
	case events.DataTypeMap:
		m, err := FromStreamImage(v.Map())
		if err != nil {
			return nil, err
		}
		return &types.AttributeValueMemberM{Value: m}, nil
	default:
		return nil, fmt.Errorf("unsupported stream data type %d", v.DataType())
	}
}
