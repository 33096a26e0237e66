package oderr

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestError(t *testing.T) {
	for _, tc := range []struct {
		err *Error

		error string
		json  string
		fatal bool
	}{
		{
			err:   DuplicateElement(CodeDuplicateElements, "content", "http://www.w3.org/2005/Atom"),
			error: "duplicate-element error code:DuplicateElements element:content namespace:http://www.w3.org/2005/Atom",
			json:  `{"kind":"duplicate-element","code":"DuplicateElements","info":{"element":"content","namespace":"http://www.w3.org/2005/Atom"}}`,
		},

		{
			err:   TypeKindMismatch(CodeIncompatibleItemTypeKind, "Complex", "Primitive"),
			error: `type-kind-mismatch error code:IncompatibleItemTypeKind actual:"Complex" expected:"Primitive"`,
			json:  `{"kind":"type-kind-mismatch","code":"IncompatibleItemTypeKind","info":{"actual":"Complex","expected":"Primitive"}}`,
		},

		{
			err:   TypeNameMismatch(CodeIncompatibleItemTypeName, "Edm.String", "Edm.Int32"),
			error: `type-name-mismatch error code:IncompatibleItemTypeName actual:"Edm.String" expected:"Edm.Int32"`,
			json:  `{"kind":"type-name-mismatch","code":"IncompatibleItemTypeName","info":{"actual":"Edm.String","expected":"Edm.Int32"}}`,
		},

		{
			err:   SchemaConflict(CodePropertyDoesNotExist, "TestModel.Customer", WithProperty("Foo")),
			error: "schema-conflict error code:PropertyDoesNotExistOnType property:Foo type-name:TestModel.Customer",
			json:  `{"kind":"schema-conflict","code":"PropertyDoesNotExistOnType","info":{"property":"Foo","type-name":"TestModel.Customer"}}`,
		},

		{
			err:   NestingLimitExceeded(3),
			error: `nesting-limit-exceeded error code:MaxNestingDepthExceeded actual:"" expected:"3"`,
			json:  `{"kind":"nesting-limit-exceeded","code":"MaxNestingDepthExceeded","info":{"expected":"3"}}`,
			fatal: true,
		},

		{
			err:   MalformedXML(errors.New("unexpected EOF")),
			error: "malformed-xml error code:MalformedXml unexpected EOF",
			json:  `{"kind":"malformed-xml","code":"MalformedXml","message":"unexpected EOF"}`,
			fatal: true,
		},

		{
			err:   MediaTypeParse("application/", WithMessage("mime: expected token after slash")),
			error: `media-type-parse error code:MediaTypeInvalid actual:"application/" expected:"" mime: expected token after slash`,
			json:  `{"kind":"media-type-parse","code":"MediaTypeInvalid","message":"mime: expected token after slash","info":{"actual":"application/"}}`,
		},
	} {
		t.Run(fmt.Sprintf("%v", tc.err), func(t *testing.T) {
			check := assert.New(t)
			check.Equal(tc.error, tc.err.Error())
			check.Equal(tc.fatal, tc.err.Fatal())

			bJSON, err := json.Marshal(tc.err)
			check.NoError(err)
			check.Equal(tc.json, string(bJSON))

			ev := Error{}
			if check.NoError(json.Unmarshal(bJSON, &ev)) {
				check.Equal(*tc.err, ev)
			}
		})
	}
}

func TestAsError(t *testing.T) {
	check := assert.New(t)

	wrapped := errors.Wrap(errors.WithStack(ContentShape(CodeInvalidNodeInStringValue, "code")), "reading error")
	e, ok := AsError(wrapped)
	if check.True(ok) {
		check.Equal(KindContentShape, e.Kind)
		check.Equal("code", e.Info.Element)
	}
	check.True(Is(wrapped, CodeInvalidNodeInStringValue))
	check.False(Is(wrapped, CodeDuplicateElements))
	check.False(IsFatal(wrapped))
	check.True(IsFatal(errors.WithStack(NestingLimitExceeded(1))))

	_, ok = AsError(errors.New("plain"))
	check.False(ok)
	_, ok = AsError(nil)
	check.False(ok)
}

func TestKindText(t *testing.T) {
	check := assert.New(t)
	for k := KindStructuralMismatch; k <= KindInvalidValue; k++ {
		b, err := k.MarshalText()
		check.NoError(err)
		var got Kind
		check.NoError(got.UnmarshalText(b))
		check.Equal(k, got)
	}
	var k Kind
	check.Error(k.UnmarshalText([]byte("nope")))
	check.Equal("Kind(42)", Kind(42).String())
}
