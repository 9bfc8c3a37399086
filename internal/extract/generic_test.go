package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenericExtractor_Ruby(t *testing.T) {
	src := `require 'json'
require "net/http"

class Animal
  def speak
  end
end

class Dog < Animal
  def bark
  end
end
`
	e, ok := NewGenericExtractor(".rb")
	require.True(t, ok)
	assert.Equal(t, "rb", e.Language())

	result, err := e.Extract("lib/zoo.rb", []byte(src))
	require.NoError(t, err)

	assert.Equal(t, "zoo", result.Module.Name)
	require.Len(t, result.Classes, 2)
	assert.Equal(t, "Animal", result.Classes[0].Name)
	assert.Empty(t, result.Classes[0].Bases)
	assert.Equal(t, "Dog", result.Classes[1].Name)
	assert.Equal(t, []string{"Animal"}, result.Classes[1].Bases)
	assert.Equal(t, 9, result.Classes[1].Line)

	require.Len(t, result.Functions, 2)
	assert.Equal(t, "speak", result.Functions[0].Name)
	assert.Equal(t, "bark", result.Functions[1].Name)

	require.Len(t, result.Dependencies, 2)
	assert.Equal(t, "json", result.Dependencies[0].Target)
	assert.Equal(t, "http", result.Dependencies[1].Target)
	assert.Equal(t, []string{"net/http"}, result.Dependencies[1].Names)
}

func TestGenericExtractor_Go(t *testing.T) {
	src := `package main

import "fmt"

type Server struct {
}

func (s *Server) Start() {
}

func main() {
	fmt.Println("hi")
}
`
	e, ok := NewGenericExtractor(".go")
	require.True(t, ok)

	result, err := e.Extract("main.go", []byte(src))
	require.NoError(t, err)

	require.Len(t, result.Classes, 1)
	assert.Equal(t, "Server", result.Classes[0].Name)

	require.Len(t, result.Functions, 2)
	assert.Equal(t, "Start", result.Functions[0].Name)
	assert.Equal(t, "main", result.Functions[1].Name)

	require.Len(t, result.Dependencies, 1)
	assert.Equal(t, "fmt", result.Dependencies[0].Target)
	assert.Equal(t, 1, result.Module.ClassCount)
}

func TestGenericExtractor_CInclude(t *testing.T) {
	src := "#include <stdio.h>\n#include \"util/strings.h\"\n\nclass Parser : public Base {\n};\n"
	e, ok := NewGenericExtractor(".HPP")
	require.True(t, ok)

	result, err := e.Extract("parser.hpp", []byte(src))
	require.NoError(t, err)

	require.Len(t, result.Dependencies, 2)
	assert.Equal(t, "stdio", result.Dependencies[0].Target)
	assert.Equal(t, "strings", result.Dependencies[1].Target)

	require.Len(t, result.Classes, 1)
	assert.Equal(t, []string{"Base"}, result.Classes[0].Bases)
}

func TestNewGenericExtractor_Unknown(t *testing.T) {
	e, ok := NewGenericExtractor(".cobol")
	assert.False(t, ok)
	assert.Nil(t, e)
}

func TestGenericImportTarget(t *testing.T) {
	tests := []struct {
		spec    string
		include bool
		want    string
	}{
		{"java.util.List", false, "List"},
		{"std::collections::HashMap", false, "HashMap"},
		{`App\Models\User`, false, "User"},
		{"net/http", false, "http"},
		{"sys/types.h", true, "types"},
		{"", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			assert.Equal(t, tt.want, GenericImportTarget(tt.spec, tt.include))
		})
	}
}
