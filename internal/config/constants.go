package config

// WorkspaceFileExt is the extension of YAML workspace documents.
const WorkspaceFileExt = ".blocks.yaml"

// SettingsFileName is looked up in the working directory when -config is not given.
const SettingsFileName = "funblocks.yaml"

// SupportedWorkspaceVersions is the semver constraint a workspace document must satisfy.
const SupportedWorkspaceVersions = "^1.0.0"

// Evaluation limits
const (
	MaxEvalDepth      = 10000
	DefaultCallBudget = 0 // 0 disables the budget
	MaxStringLength   = 1 << 20
)

// MaxInferenceSteps bounds one propagation pass per group in the graph.
const MaxInferenceSteps = 64

// Base-type keys, as reported by Type.Key()
const (
	UnknownTypeKey     = "unknown"
	BooleanTypeKey     = "boolean"
	NumberTypeKey      = "number"
	StringTypeKey      = "string"
	CharacterTypeKey   = "character"
	ListTypeKey        = "list"
	ListOfTypesTypeKey = "list_of_types"
	NArityTypeKey      = "n_arity"
	ArgumentsTypeKey   = "arguments"
	FunctionTypeKey    = "function"
)

// Built-in function names
const (
	ConsFuncName   = "cons"
	FirstFuncName  = "first"
	RestFuncName   = "rest"
	ListFuncName   = "list"
	EmptyName      = "empty"
	MapFuncName    = "map"
	IsListFuncName = "list?"
	EqualFuncName  = "equal?"
)

// Block input names
const (
	CarInput       = "car"
	CdrInput       = "cdr"
	ListArgInput   = "x"
	RestArgPrefix  = "REST_ARG"
	PredInput      = "PRED"
	ThenInput      = "THEN_EXPR"
	ElseExprInput  = "ELSE_EXPR"
	ConditionInput = "CONDITION"
	BodyInput      = "BODY"
	ElseInput      = "ELSE"
	ExprInput      = "EXPR"
	ResultInput    = "RESULT"
)

// Colour defaults, in the editor's HSV terms
const (
	HueSpan          = 270.0
	HSVSaturation    = 0.45
	HSVValue         = 0.65
	ListLightenRatio = 0.4
)
