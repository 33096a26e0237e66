package schema

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const csdlV3 = `<?xml version="1.0" encoding="utf-8"?>
<edmx:Edmx Version="1.0" xmlns:edmx="http://schemas.microsoft.com/ado/2007/06/edmx">
  <edmx:DataServices m:DataServiceVersion="3.0" xmlns:m="http://schemas.microsoft.com/ado/2007/08/dataservices/metadata">
    <Schema Namespace="TestModel" Alias="TM" xmlns="http://schemas.microsoft.com/ado/2009/11/edm">
      <EntityType Name="Customer" OpenType="true">
        <Key><PropertyRef Name="ID"/></Key>
        <Property Name="ID" Type="Edm.Int32" Nullable="false"/>
        <Property Name="Address" Type="TM.Address"/>
        <Property Name="Emails" Type="Collection(Edm.String)"/>
        <NavigationProperty Name="Orders" Relationship="TM.Customer_Orders" FromRole="Customer" ToRole="Orders"/>
      </EntityType>
      <EntityType Name="Order">
        <Property Name="ID" Type="Edm.Int32" Nullable="false"/>
        <NavigationProperty Name="Customer" Relationship="TestModel.Customer_Orders" FromRole="Orders" ToRole="Customer"/>
      </EntityType>
      <EntityType Name="Photo" BaseType="TM.Media" m:HasStream="true"/>
      <EntityType Name="Media" Abstract="true"/>
      <ComplexType Name="Address">
        <Property Name="Street" Type="Edm.String"/>
      </ComplexType>
      <Association Name="Customer_Orders">
        <End Role="Customer" Type="TM.Customer" Multiplicity="0..1"/>
        <End Role="Orders" Type="TestModel.Order" Multiplicity="*"/>
      </Association>
    </Schema>
  </edmx:DataServices>
</edmx:Edmx>`

const csdlV4 = `<edmx:Edmx Version="4.0" xmlns:edmx="http://docs.oasis-open.org/odata/ns/edmx">
  <edmx:DataServices>
    <Schema Namespace="Shop" xmlns="http://docs.oasis-open.org/odata/ns/edm">
      <EntityType Name="Product" HasStream="true">
        <Property Name="Name" Type="Edm.String"/>
        <NavigationProperty Name="Related" Type="Collection(Shop.Product)"/>
        <NavigationProperty Name="Supplier" Type="Shop.Supplier"/>
      </EntityType>
      <EntityType Name="Supplier"/>
    </Schema>
  </edmx:DataServices>
</edmx:Edmx>`

func TestParseCSDLAssociations(t *testing.T) {
	check := assert.New(t)
	s, err := ParseCSDL(strings.NewReader(csdlV3))
	require.NoError(t, err)

	customer, ok := s.ResolveType("TestModel.Customer")
	require.True(t, ok)
	check.Equal(TypeKindEntity, customer.Kind)
	check.True(s.IsOpen(customer))
	check.False(customer.HasStream)

	p, ok := s.PropertyOf(customer, "ID")
	if check.True(ok) {
		check.Equal("Edm.Int32", p.TypeName)
		check.False(p.Nullable)
	}
	p, ok = s.PropertyOf(customer, "Address")
	if check.True(ok) {
		check.Equal("TestModel.Address", p.TypeName)
		check.True(p.Nullable)
	}
	p, ok = s.PropertyOf(customer, "Orders")
	if check.True(ok) {
		check.True(p.Navigation)
		check.Equal("Collection(TestModel.Order)", p.TypeName)
	}

	order, _ := s.ResolveType("TestModel.Order")
	p, ok = s.PropertyOf(order, "Customer")
	if check.True(ok) {
		check.Equal("TestModel.Customer", p.TypeName)
		check.False(p.IsCollection())
	}

	photo, _ := s.ResolveType("TestModel.Photo")
	check.True(photo.HasStream)
	check.Equal("TestModel.Media", photo.BaseType)
	media, _ := s.ResolveType("TestModel.Media")
	check.True(media.Abstract)
	check.True(IsAssignable(s, media, photo))

	address, _ := s.ResolveType("TestModel.Address")
	check.Equal(TypeKindComplex, address.Kind)
}

func TestParseCSDLNavigationTypes(t *testing.T) {
	check := assert.New(t)
	s, err := ParseCSDL(strings.NewReader(csdlV4))
	require.NoError(t, err)

	product, ok := s.ResolveType("Shop.Product")
	require.True(t, ok)
	check.True(product.HasStream)
	p, ok := s.PropertyOf(product, "Related")
	if check.True(ok) {
		check.True(p.IsCollection())
	}
	p, ok = s.PropertyOf(product, "Supplier")
	if check.True(ok) {
		check.Equal("Shop.Supplier", p.TypeName)
	}
}

func TestParseCSDLErrors(t *testing.T) {
	for _, tc := range []struct {
		name    string
		input   string
		wantErr string
	}{
		{name: "not xml", input: `<edmx:Edmx`, wantErr: "parsing metadata document"},
		{name: "wrong root", input: `<feed/>`, wantErr: "missing <Edmx> element"},
		{name: "no schema", input: `<Edmx><DataServices/></Edmx>`, wantErr: "missing <Schema> element(s)"},
		{name: "no namespace", input: `<Edmx><Schema/></Edmx>`, wantErr: "<Schema> element missing Namespace attribute"},
		{
			name:    "unnamed type",
			input:   `<Edmx><Schema Namespace="N"><EntityType/></Schema></Edmx>`,
			wantErr: "<EntityType> element missing Name attribute",
		},
		{
			name:    "untyped property",
			input:   `<Edmx><Schema Namespace="N"><ComplexType Name="C"><Property Name="P"/></ComplexType></Schema></Edmx>`,
			wantErr: "type N.C: <Property> element missing Name or Type attribute",
		},
		{
			name:    "unknown association",
			input:   `<Edmx><Schema Namespace="N"><EntityType Name="E"><NavigationProperty Name="X" Relationship="N.R" ToRole="Y"/></EntityType></Schema></Edmx>`,
			wantErr: "type N.E: navigation property X: no association end N.R/Y",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseCSDL(strings.NewReader(tc.input))
			if assert.Error(t, err) {
				assert.Contains(t, err.Error(), tc.wantErr)
			}
		})
	}
}
