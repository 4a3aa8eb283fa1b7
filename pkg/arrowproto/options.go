package arrowproto

// DefaultMaxRecursionDepth bounds nested messages accepted by ParseMap.
const DefaultMaxRecursionDepth = 100

// Options controls schema derivation and conversion in both directions. The same
// value should be passed to Schema, MessageToMap and ParseMap so that the produced
// mappings conform to the derived schema. A nil *Options means all defaults.
type Options struct {
	// PreservingProtoFieldName names columns after the declared field names instead
	// of their lowerCamelCase JSON names.
	PreservingProtoFieldName bool `yaml:"preserving_proto_field_name"`

	// IgnoreDeprecated drops fields marked deprecated.
	IgnoreDeprecated bool `yaml:"ignore_deprecated"`

	// IgnoreCircularDefinitions drops self-referential fields instead of failing.
	IgnoreCircularDefinitions bool `yaml:"ignore_circular_definitions"`

	// IncludingDefaultValueFields emits unpopulated scalar, repeated and map fields
	// with their default values. Singular message and oneof fields stay absent.
	IncludingDefaultValueFields bool `yaml:"including_default_value_fields"`

	// UseIntegersForEnums renders enums as their numbers instead of their names.
	UseIntegersForEnums bool `yaml:"use_integers_for_enums"`

	// FloatPrecision rounds float and double values to this many significant digits.
	// Zero leaves values untouched.
	FloatPrecision int `yaml:"float_precision"`

	// IgnoreUnknownFields silently drops mapping keys with no matching field.
	IgnoreUnknownFields bool `yaml:"ignore_unknown_fields"`

	// MaxRecursionDepth bounds message nesting on decode. Zero means
	// DefaultMaxRecursionDepth.
	MaxRecursionDepth int `yaml:"max_recursion_depth"`
}

func (o *Options) orDefault() *Options {
	if o == nil {
		return &Options{}
	}
	return o
}

func (o *Options) maxDepth() int {
	if o.MaxRecursionDepth <= 0 {
		return DefaultMaxRecursionDepth
	}
	return o.MaxRecursionDepth
}
