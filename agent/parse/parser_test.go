package parse

import (
	"errors"
	"testing"

	contractx "github.com/shopchat-ai/shopchat/agent/contract"
)

func testSpecs() Specs {
	return Specs{
		contractx.AgentInfo: {
			"list_products": {Name: "list_products", Optional: []string{"page", "per_page"}},
			"get_order":     {Name: "get_order", Required: []string{"order_id"}},
		},
		contractx.AgentAction: {
			"update_product_price": {
				Name:     "update_product_price",
				Required: []string{"product_id", "price"},
			},
		},
		contractx.AgentResearch: {
			"get_market_trends": {Name: "get_market_trends", Required: []string{"market_segment"}},
		},
	}
}

func TestParsePlainObject(t *testing.T) {
	t.Parallel()

	parser := New(testSpecs())
	cmd, err := parser.Parse(`{"agent":"info","method":"list_products","params":{}}`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cmd.Agent != contractx.AgentInfo || cmd.Method != "list_products" {
		t.Fatalf("unexpected command: %+v", cmd)
	}
	if len(cmd.Params) != 0 {
		t.Fatalf("params = %v, want empty", cmd.Params)
	}
}

func TestParseToleratesFencesAndProse(t *testing.T) {
	t.Parallel()

	parser := New(testSpecs())
	raw := "Sure, here is the command:\n```json\n" +
		`{"agent":"action","method":"update_product_price","params":{"product_id":12,"price":"19.90"}}` +
		"\n```\nLet me know if you need anything else."

	cmd, err := parser.Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cmd.Agent != contractx.AgentAction || cmd.Method != "update_product_price" {
		t.Fatalf("unexpected command: %+v", cmd)
	}
	if cmd.Params["price"] != "19.90" {
		t.Fatalf("params = %v", cmd.Params)
	}
}

func TestParseBracesInsideStrings(t *testing.T) {
	t.Parallel()

	parser := New(testSpecs())
	raw := `{"agent":"research","method":"get_market_trends","params":{"market_segment":"fashion {fall}"}}`

	cmd, err := parser.Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cmd.Params["market_segment"] != "fashion {fall}" {
		t.Fatalf("params = %v", cmd.Params)
	}
}

func TestParseNoPayload(t *testing.T) {
	t.Parallel()

	parser := New(testSpecs())
	_, err := parser.Parse("I am not sure what you mean.")
	if !errors.Is(err, contractx.ErrSchemaViolation) {
		t.Fatalf("err = %v, want ErrSchemaViolation", err)
	}

	var parseErr *Error
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if parseErr.Raw != "I am not sure what you mean." {
		t.Fatalf("raw not preserved: %q", parseErr.Raw)
	}
}

func TestParseMissingFields(t *testing.T) {
	t.Parallel()

	parser := New(testSpecs())
	cases := []string{
		`{"method":"list_products","params":{}}`,
		`{"agent":"info","params":{}}`,
		`{"agent":"  ","method":"list_products","params":{}}`,
	}
	for _, raw := range cases {
		if _, err := parser.Parse(raw); !errors.Is(err, contractx.ErrSchemaViolation) {
			t.Errorf("Parse(%q) err = %v, want ErrSchemaViolation", raw, err)
		}
	}
}

func TestParseUnknownAgent(t *testing.T) {
	t.Parallel()

	parser := New(testSpecs())
	_, err := parser.Parse(`{"agent":"billing","method":"list_products","params":{}}`)
	if !errors.Is(err, contractx.ErrUnknownAgent) {
		t.Fatalf("err = %v, want ErrUnknownAgent", err)
	}
}

func TestParseUnknownMethod(t *testing.T) {
	t.Parallel()

	parser := New(testSpecs())
	_, err := parser.Parse(`{"agent":"info","method":"drop_tables","params":{}}`)
	if !errors.Is(err, contractx.ErrUnknownMethod) {
		t.Fatalf("err = %v, want ErrUnknownMethod", err)
	}
}

func TestParseDropsUndeclaredParams(t *testing.T) {
	t.Parallel()

	parser := New(testSpecs())
	cmd, err := parser.Parse(`{"agent":"info","method":"get_order","params":{"order_id":42,"mood":"hopeful"}}`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, ok := cmd.Params["mood"]; ok {
		t.Fatal("undeclared param survived validation")
	}
	if cmd.Params["order_id"] != float64(42) {
		t.Fatalf("params = %v", cmd.Params)
	}
}

func TestParseMissingRequiredParam(t *testing.T) {
	t.Parallel()

	parser := New(testSpecs())
	_, err := parser.Parse(`{"agent":"info","method":"get_order","params":{}}`)
	if !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}

	var parseErr *Error
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if parseErr.Reason == "" {
		t.Fatal("reason should name the missing param")
	}
}

func TestParseNonEnglishSurroundingText(t *testing.T) {
	t.Parallel()

	parser := New(testSpecs())
	raw := "הנה הפקודה המבוקשת: " + `{"agent":"info","method":"list_products","params":{}}`

	cmd, err := parser.Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cmd.Agent != contractx.AgentInfo || cmd.Method != "list_products" {
		t.Fatalf("unexpected command: %+v", cmd)
	}
}
