package extract

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/codevision/internal/models"
)

const animalSource = `import React, { useState, type FC } from 'react';
import * as path from "path";
import { User as U } from './models/user';
const fs = require('fs');
const { join } = require("path");

export interface Shape extends Base, Named<T> {
  area: number;
  readonly name?: string;
}

export abstract class Animal<T> extends Base<T> implements Walker, Runner {
  private name: string;
  static count = 0;
  #secret;

  constructor(name: string, age: number = 3) {
    super();
    this.name = name;
  }

  async speak(msg: Map<string, List<int>>, loud?: boolean): Promise<void> {
    if (loud) {
      console.log(msg);
    }
  }

  static create(): Animal {
    return null;
  }

  protected _hidden() {}
}

export function helper(a, b) {
  return a + b;
}

async function load(url: string): Promise<string> {
  return url;
}

export const handler = async (req, res) => {
  res.send();
};

const double = x => x * 2;

export { load };
`

func extractAnimal(t *testing.T) *models.FileResult {
	t.Helper()
	result, err := NewScriptExtractor().Extract("src/animal.ts", []byte(animalSource))
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func classByName(t *testing.T, classes []models.ClassEntity, name string) models.ClassEntity {
	t.Helper()
	for _, c := range classes {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("class %s not found", name)
	return models.ClassEntity{}
}

func TestScriptExtractor_Module(t *testing.T) {
	result := extractAnimal(t)

	assert.Equal(t, "animal", result.Module.Name)
	assert.Equal(t, "typescript", result.Module.Language)
	assert.Equal(t, 2, result.Module.ClassCount)
	assert.Equal(t, 4, result.Module.FunctionCount)
	assert.Equal(t, []string{"Shape", "Animal", "helper", "handler", "load"}, result.Module.Exports)
}

func TestScriptExtractor_Classes(t *testing.T) {
	result := extractAnimal(t)
	animal := classByName(t, result.Classes, "Animal")

	assert.Equal(t, 12, animal.Line)
	assert.True(t, animal.IsAbstract)
	assert.False(t, animal.IsInterface)
	assert.Equal(t, []string{"Base"}, animal.Bases)
	assert.Equal(t, []string{"Walker", "Runner"}, animal.Implements)
	assert.Equal(t, []string{"name", "count", "#secret"}, animal.Attributes)

	names := make([]string, 0, len(animal.Methods))
	for _, m := range animal.Methods {
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{"constructor", "speak", "create", "_hidden"}, names)

	ctor := animal.Methods[0]
	assert.Equal(t, []models.Parameter{
		{Name: "name", Type: "string"},
		{Name: "age", Type: "number", Default: "3"},
	}, ctor.Parameters)

	speak := animal.Methods[1]
	assert.True(t, speak.IsAsync)
	assert.Len(t, speak.Parameters, 2)
	assert.Equal(t, "Map<string, List<int>>", speak.Parameters[0].Type)
	assert.Equal(t, "Promise<void>", speak.ReturnType)

	create := animal.Methods[2]
	assert.True(t, create.IsStatic)
	assert.Equal(t, "Animal", create.ReturnType)

	assert.Equal(t, models.VisibilityProtected, animal.Methods[3].Visibility)
}

func TestScriptExtractor_Interfaces(t *testing.T) {
	result := extractAnimal(t)
	shape := classByName(t, result.Classes, "Shape")

	assert.Equal(t, 7, shape.Line)
	assert.True(t, shape.IsInterface)
	assert.True(t, shape.IsAbstract)
	assert.Equal(t, []string{"Base", "Named"}, shape.Bases)
	assert.Equal(t, []string{"area", "name"}, shape.Attributes)
	assert.Empty(t, shape.Methods)
}

func TestScriptExtractor_Functions(t *testing.T) {
	result := extractAnimal(t)

	byName := make(map[string]models.FunctionEntity)
	for _, fn := range result.Functions {
		byName[fn.Name] = fn
	}
	require.Len(t, byName, 4)

	tests := []struct {
		name     string
		exported bool
		async    bool
		params   int
	}{
		{"helper", true, false, 2},
		{"load", true, true, 1},
		{"handler", true, true, 2},
		{"double", false, false, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn, ok := byName[tt.name]
			require.True(t, ok)
			assert.Equal(t, tt.exported, fn.Exported)
			assert.Equal(t, tt.async, fn.IsAsync)
			assert.Len(t, fn.Parameters, tt.params)
			assert.Equal(t, "animal", fn.Module)
		})
	}

	assert.Equal(t, "Promise<string>", byName["load"].ReturnType)
}

func TestScriptExtractor_Imports(t *testing.T) {
	result := extractAnimal(t)
	require.Len(t, result.Dependencies, 5)

	expect := []struct {
		target string
		kind   models.ImportKind
		names  []string
	}{
		{"react", models.ImportPackage, []string{"React", "useState", "FC"}},
		{"path", models.ImportPackage, []string{"* as path"}},
		{"models", models.ImportRelative, []string{"User"}},
		{"fs", models.ImportPackage, []string{"fs"}},
		{"path", models.ImportPackage, []string{"join"}},
	}
	for i, tt := range expect {
		dep := result.Dependencies[i]
		assert.Equal(t, "animal", dep.Source)
		assert.Equal(t, tt.target, dep.Target)
		assert.Equal(t, tt.kind, dep.Kind)
		assert.Equal(t, tt.names, dep.Names)
	}
}

func TestScriptExtractor_LanguageByExtension(t *testing.T) {
	tests := map[string]string{
		"a.js":  "javascript",
		"a.jsx": "javascript",
		"a.ts":  "typescript",
		"a.tsx": "typescript",
		"a.vue": "vue",
	}
	for path, lang := range tests {
		t.Run(path, func(t *testing.T) {
			result, err := NewScriptExtractor().Extract(path, []byte(""))
			require.NoError(t, err)
			assert.Equal(t, lang, result.Module.Language)
			assert.Zero(t, result.Module.LineCount)
			assert.NotNil(t, result.Classes)
			assert.NotNil(t, result.Dependencies)
		})
	}
}

func TestScriptExtractor_ControlFlowIsNotAFunction(t *testing.T) {
	src := "class A {\n  run() {\n    for (;;) {}\n  }\n  if(x) {}\n}\n"
	result, err := NewScriptExtractor().Extract("a.js", []byte(src))
	require.NoError(t, err)

	a := classByName(t, result.Classes, "A")
	require.Len(t, a.Methods, 1)
	assert.Equal(t, "run", a.Methods[0].Name)
}

func TestExtractBlock(t *testing.T) {
	src := "x { a { b } c } tail"
	start := strings.Index(src, "{")

	assert.Equal(t, "{ a { b } c }", ExtractBlock(src, start))
	assert.Equal(t, "{ b", ExtractBlock("{ b", 0))
	assert.Empty(t, ExtractBlock(src, 0))
	assert.Empty(t, ExtractBlock(src, 100))
}

func TestIsInsideClass(t *testing.T) {
	src := "function a() {}\nclass B {\n  m() {}\n}\nfunction c() {}\n"

	assert.False(t, IsInsideClass(src, 0))
	assert.True(t, IsInsideClass(src, strings.Index(src, "m()")))
	assert.False(t, IsInsideClass(src, strings.Index(src, "function c")))
}

func TestScriptExtractor_ManyTopLevelFunctions(t *testing.T) {
	const n = 8000

	var sb strings.Builder
	sb.WriteString("class A {}\n")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&sb, "export function f%d(a, b) {\n  return a + b;\n}\n", i)
	}

	start := time.Now()
	result, err := NewScriptExtractor().Extract("src/many.js", []byte(sb.String()))
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Less(t, elapsed, 5*time.Second)
	require.Len(t, result.Functions, n)
	require.Len(t, result.Classes, 1)

	byName := make(map[string]models.FunctionEntity, n)
	for _, fn := range result.Functions {
		byName[fn.Name] = fn
	}
	assert.Equal(t, 2, byName["f0"].Line)
	assert.Equal(t, 2+3*(n-1), byName[fmt.Sprintf("f%d", n-1)].Line)
	assert.True(t, byName["f42"].Exported)
	assert.Len(t, byName["f42"].Parameters, 2)
}

func TestIsInsideClass_Boundaries(t *testing.T) {
	src := "const x = {};\nclass B {\n  m() { return {}; }\n}\nconst y = () => 1;\n"

	tests := []struct {
		name string
		at   string
		want bool
	}{
		{"object literal before any class", "};", false},
		{"class header", "class B", false},
		{"method body", "return", true},
		{"after class closes", "const y", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsInsideClass(src, strings.Index(src, tt.at)))
		})
	}
	assert.False(t, IsInsideClass(src, len(src)))
	assert.False(t, IsInsideClass("function f() {}", 5))
}
