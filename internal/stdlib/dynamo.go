package stdlib

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	velaerrors "github.com/velalang/vela/internal/errors"
	"github.com/velalang/vela/internal/function"
	"github.com/velalang/vela/internal/value"
	"github.com/velalang/vela/internal/vm"
)

// dynamoTable is an external-instance value bound to one AWS DynamoDB
// table. Every I/O method returns a vm.Future rather than blocking the
// dispatch loop, so `await table->getItem(...)` suspends the same way a
// script-level coroutine does.
type dynamoTable struct {
	client *dynamodb.Client
	name   string
}

func (t *dynamoTable) ValueKind() value.Kind { return value.KindExternalInstance }

func (t *dynamoTable) MemberGet(id, from string, rec bool) (value.Value, error) {
	host, ok := t.methods()[id]
	if !ok {
		return nil, velaerrors.New(velaerrors.KindUndefined, "undefined member %q on DynamoTable", id)
	}
	return &function.Function{Name: id, IsExternal: true, Host: host, Params: variadicParams}, nil
}

func (t *dynamoTable) MemberSet(id string, v value.Value, defineIfAbsent, rec bool) error {
	return velaerrors.New(velaerrors.KindUndefined, "DynamoTable has no writable member %q", id)
}

func (t *dynamoTable) SubGet(key value.Value) (value.Value, error) {
	return nil, velaerrors.New(velaerrors.KindSubGetKey, "DynamoTable is not subscriptable")
}

func (t *dynamoTable) SubSet(key, v value.Value) error {
	return velaerrors.New(velaerrors.KindSubGetKey, "DynamoTable is not subscriptable")
}

func (t *dynamoTable) methods() map[string]function.HostFunc {
	return map[string]function.HostFunc{
		"putItem":    t.putItem,
		"getItem":    t.getItem,
		"deleteItem": t.deleteItem,
		"query":      t.query,
	}
}

func (t *dynamoTable) putItem(pos []value.Value, _ map[string]value.Value) (value.Value, error) {
	if len(pos) < 1 {
		return nil, velaerrors.New(velaerrors.KindExtraPositionalArg, "DynamoTable.putItem: missing item argument")
	}
	item, err := requireMap(pos[0], "DynamoTable.putItem")
	if err != nil {
		return nil, err
	}
	fut := runAsync(func() (value.Value, error) {
		av, err := attributevalue.MarshalMap(item)
		if err != nil {
			return nil, err
		}
		_, err = t.client.PutItem(context.Background(), &dynamodb.PutItemInput{
			TableName: aws.String(t.name),
			Item:      av,
		})
		if err != nil {
			return nil, err
		}
		return value.NewBool(true), nil
	})
	return vm.WrapFuture(fut), nil
}

func (t *dynamoTable) getItem(pos []value.Value, _ map[string]value.Value) (value.Value, error) {
	if len(pos) < 1 {
		return nil, velaerrors.New(velaerrors.KindExtraPositionalArg, "DynamoTable.getItem: missing key argument")
	}
	key, err := requireMap(pos[0], "DynamoTable.getItem")
	if err != nil {
		return nil, err
	}
	fut := runAsync(func() (value.Value, error) {
		avKey, err := attributevalue.MarshalMap(key)
		if err != nil {
			return nil, err
		}
		out, err := t.client.GetItem(context.Background(), &dynamodb.GetItemInput{
			TableName: aws.String(t.name),
			Key:       avKey,
		})
		if err != nil {
			return nil, err
		}
		if out.Item == nil {
			return value.Null, nil
		}
		var decoded map[string]any
		if err := attributevalue.UnmarshalMap(out.Item, &decoded); err != nil {
			return nil, err
		}
		return decodedToValue(decoded), nil
	})
	return vm.WrapFuture(fut), nil
}

func (t *dynamoTable) deleteItem(pos []value.Value, _ map[string]value.Value) (value.Value, error) {
	if len(pos) < 1 {
		return nil, velaerrors.New(velaerrors.KindExtraPositionalArg, "DynamoTable.deleteItem: missing key argument")
	}
	key, err := requireMap(pos[0], "DynamoTable.deleteItem")
	if err != nil {
		return nil, err
	}
	fut := runAsync(func() (value.Value, error) {
		avKey, err := attributevalue.MarshalMap(key)
		if err != nil {
			return nil, err
		}
		_, err = t.client.DeleteItem(context.Background(), &dynamodb.DeleteItemInput{
			TableName: aws.String(t.name),
			Key:       avKey,
		})
		if err != nil {
			return nil, err
		}
		return value.NewBool(true), nil
	})
	return vm.WrapFuture(fut), nil
}

func (t *dynamoTable) query(pos []value.Value, _ map[string]value.Value) (value.Value, error) {
	keyCond, err := argString(pos, 0, "DynamoTable.query")
	if err != nil {
		return nil, err
	}
	exprVals := map[string]any{}
	if len(pos) > 1 {
		exprVals, err = requireMap(pos[1], "DynamoTable.query")
		if err != nil {
			return nil, err
		}
	}
	fut := runAsync(func() (value.Value, error) {
		avVals, err := attributevalue.MarshalMap(exprVals)
		if err != nil {
			return nil, err
		}
		out, err := t.client.Query(context.Background(), &dynamodb.QueryInput{
			TableName:                 aws.String(t.name),
			KeyConditionExpression:    aws.String(keyCond),
			ExpressionAttributeValues: avVals,
		})
		if err != nil {
			return nil, err
		}
		var items []map[string]any
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &items); err != nil {
			return nil, err
		}
		vals := make([]value.Value, len(items))
		for i, it := range items {
			vals[i] = decodedToValue(it)
		}
		return value.NewList(vals), nil
	})
	return vm.WrapFuture(fut), nil
}

// requireMap converts a script Map argument into the map[string]any shape
// attributevalue.MarshalMap expects.
func requireMap(v value.Value, who string) (map[string]any, error) {
	m, ok := v.(*value.Map)
	if !ok {
		return nil, velaerrors.New(velaerrors.KindTypeCast, "%s: argument must be a map", who)
	}
	raw, err := valueToJSON(m)
	if err != nil {
		return nil, err
	}
	out, ok := raw.(map[string]any)
	if !ok {
		return nil, velaerrors.New(velaerrors.KindTypeCast, "%s: argument must be a map", who)
	}
	return out, nil
}

// bindDynamo installs the DynamoTable external class: its sole static
// method, connect, loads AWS config for a region and returns a bound
// table instance carrying every instance method above.
func bindDynamo(v *vm.VM) error {
	bindExternalClass(v, "DynamoTable", map[string]function.HostFunc{
		"connect": dynamoConnect,
	})
	return nil
}

func dynamoConnect(pos []value.Value, named map[string]value.Value) (value.Value, error) {
	region, err := argString(pos, 0, "DynamoTable.connect")
	if err != nil {
		return nil, err
	}
	tableName, err := argString(pos, 1, "DynamoTable.connect")
	if err != nil {
		return nil, err
	}
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(region))
	if err != nil {
		return nil, velaerrors.New(velaerrors.KindExtern, "DynamoTable.connect: %v", err)
	}
	return &dynamoTable{client: dynamodb.NewFromConfig(cfg), name: tableName}, nil
}
