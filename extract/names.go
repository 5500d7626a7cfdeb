package extract

// Class names of the shapes this package recognises.
const (
	ListTypePrefix                = "System.Collections.Generic.List`1"
	ArrayListTypeName             = "System.Collections.ArrayList"
	HashtableTypeName             = "System.Collections.Hashtable"
	NotSupportedExceptionTypeName = "System.NotSupportedException"
	DecimalTypeName               = "System.Decimal"
	DateTimeTypeName              = "System.DateTime"
	TimeSpanTypeName              = "System.TimeSpan"
	StringTypeName                = "System.String"
	PointFTypeName                = "System.Drawing.PointF"
	RectangleFTypeName            = "System.Drawing.RectangleF"

	DrawingLibraryName   = "System.Drawing, Version=4.0.0.0, Culture=neutral, PublicKeyToken=b03f5f7f11d50a3a"
	CoreLibraryQualifier = "mscorlib, Version=4.0.0.0, Culture=neutral, PublicKeyToken=b77a5c561934e089"
)

const (
	valueMember     = "m_value"
	itemsMember     = "_items"
	sizeMember      = "_size"
	versionMember   = "_version"
	comparerMember  = "Comparer"
	providerMember  = "HashCodeProvider"
	keysMember      = "Keys"
	valuesMember    = "Values"
	classNameMember = "ClassName"
	messageMember   = "Message"
)

// Member names of the recognised shapes, in the order the framework
// writes them.
var (
	CollectionMembers = []string{itemsMember, sizeMember, versionMember}
	HashtableMembers  = []string{
		"LoadFactor", "Version", comparerMember, providerMember, "HashSize", keysMember, valuesMember,
	}
	DecimalMembers    = []string{"flags", "hi", "lo", "mid"}
	DateTimeMembers   = []string{"ticks", "dateData"}
	TimeSpanMembers   = []string{"_ticks"}
	PointFMembers     = []string{"x", "y"}
	RectangleFMembers = []string{"x", "y", "width", "height"}
)

// ListTypeName returns the full name of a generic list whose element type
// is the named core library type, e.g. "System.Int32".
func ListTypeName(elementType string) string {
	return ListTypePrefix + "[[" + elementType + ", " + CoreLibraryQualifier + "]]"
}
