// Copyright 2026 The xqpipe Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package syntax

// A Kind tags the construct a Node represents.
// The resolver dispatches on Kind; a parser chooses which kinds it
// produces but must use the binding constructs below for scope
// analysis to be meaningful.
type Kind uint8

const (
	Illegal Kind = iota // zero value; the kind of NoNode

	Module // root of a tree built by Parse

	// pipelines
	PipeExpr
	Start
	ForBind
	LetBind
	Selection
	OrderBy
	OrderBySpec
	Join
	JoinClause
	GroupBy
	Count
	End

	// bindings
	TypedVariableBinding
	Variable
	VariableRef

	// expressions that introduce scopes
	TypeSwitch
	TypeSwitchCase
	QuantifiedExpr
	SomeQuantifier
	EveryQuantifier
	TransformExpr
	CopyBinding
	TryCatchExpr
	CatchClause
	CatchErrorList
	FilterExpr
	Predicate
	PathExpr
	StepExpr
	CompDocumentConstructor
	DirElementConstructor
	CompElementConstructor
	NamespaceDeclaration
	ContentSequence

	// other expressions
	SequenceExpr
	IfExpr
	ComparisonExpr
	ArithmeticExpr
	FunctionCall
	ContextItemExpr
	QName
	SequenceType
	Int
	Str
	Empty

	maxKind
)

var kindNames = [...]string{
	Illegal:                 "Illegal",
	Module:                  "Module",
	PipeExpr:                "PipeExpr",
	Start:                   "Start",
	ForBind:                 "ForBind",
	LetBind:                 "LetBind",
	Selection:               "Selection",
	OrderBy:                 "OrderBy",
	OrderBySpec:             "OrderBySpec",
	Join:                    "Join",
	JoinClause:              "JoinClause",
	GroupBy:                 "GroupBy",
	Count:                   "Count",
	End:                     "End",
	TypedVariableBinding:    "TypedVariableBinding",
	Variable:                "Variable",
	VariableRef:             "VariableRef",
	TypeSwitch:              "TypeSwitch",
	TypeSwitchCase:          "TypeSwitchCase",
	QuantifiedExpr:          "QuantifiedExpr",
	SomeQuantifier:          "SomeQuantifier",
	EveryQuantifier:         "EveryQuantifier",
	TransformExpr:           "TransformExpr",
	CopyBinding:             "CopyBinding",
	TryCatchExpr:            "TryCatchExpr",
	CatchClause:             "CatchClause",
	CatchErrorList:          "CatchErrorList",
	FilterExpr:              "FilterExpr",
	Predicate:               "Predicate",
	PathExpr:                "PathExpr",
	StepExpr:                "StepExpr",
	CompDocumentConstructor: "CompDocumentConstructor",
	DirElementConstructor:   "DirElementConstructor",
	CompElementConstructor:  "CompElementConstructor",
	NamespaceDeclaration:    "NamespaceDeclaration",
	ContentSequence:         "ContentSequence",
	SequenceExpr:            "SequenceExpr",
	IfExpr:                  "IfExpr",
	ComparisonExpr:          "ComparisonExpr",
	ArithmeticExpr:          "ArithmeticExpr",
	FunctionCall:            "FunctionCall",
	ContextItemExpr:         "ContextItemExpr",
	QName:                   "QName",
	SequenceType:            "SequenceType",
	Int:                     "Int",
	Str:                     "Str",
	Empty:                   "Empty",
}

func (k Kind) String() string {
	if k < maxKind {
		return kindNames[k]
	}
	return "Kind(?)"
}

var kindByName = func() map[string]Kind {
	m := make(map[string]Kind, maxKind)
	for k := Module; k < maxKind; k++ {
		m[kindNames[k]] = k
	}
	return m
}()

// LookupKind returns the kind with the given name.
func LookupKind(name string) (Kind, bool) {
	k, ok := kindByName[name]
	return k, ok
}

// IsOperator reports whether k is a pipeline operator,
// that is, a node visited by the pipeline walk rather than
// the generic expression walk.
func (k Kind) IsOperator() bool {
	switch k {
	case Start, ForBind, LetBind, Selection, OrderBy, Join, GroupBy, Count:
		return true
	}
	return false
}

// Names of variables bound implicitly by filter predicates, path steps,
// node constructors and catch clauses.
const (
	FSDot      = "fs:dot"
	FSPosition = "fs:position"
	FSLast     = "fs:last"
	FSParent   = "fs:parent"

	ErrCode         = "err:code"
	ErrDescription  = "err:description"
	ErrValue        = "err:value"
	ErrModule       = "err:module"
	ErrLineNumber   = "err:line-number"
	ErrColumnNumber = "err:column-number"
)
