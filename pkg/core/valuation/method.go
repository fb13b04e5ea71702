// Package valuation holds the types shared by the five valuation engines:
// the method enum, the Money value object, the result envelope and the
// error taxonomy. Engine packages depend on this package, never on each
// other.
package valuation

import "github.com/rotisserie/eris"

// Method identifies one of the five statutorily distinct valuation methods.
type Method string

const (
	MethodDCF            Method = "dcf"
	MethodRelative       Method = "relative"
	MethodIntrinsic      Method = "intrinsic"
	MethodAsset          Method = "asset"
	MethodInheritanceTax Method = "inheritance_tax"
)

// Methods lists every supported method in report order.
func Methods() []Method {
	return []Method{MethodDCF, MethodRelative, MethodIntrinsic, MethodAsset, MethodInheritanceTax}
}

// ParseMethod validates a method tag coming from persistence or a caller.
func ParseMethod(s string) (Method, error) {
	switch Method(s) {
	case MethodDCF, MethodRelative, MethodIntrinsic, MethodAsset, MethodInheritanceTax:
		return Method(s), nil
	}
	return "", eris.Wrapf(ErrInvalidParameter, "unknown valuation method %q", s)
}

// DisplayName returns the Korean report label for the method.
func (m Method) DisplayName() string {
	switch m {
	case MethodDCF:
		return "현금흐름할인법 (DCF)"
	case MethodRelative:
		return "상대가치평가법"
	case MethodIntrinsic:
		return "자본시장법 본질가치"
	case MethodAsset:
		return "자산가치평가법 (NAV)"
	case MethodInheritanceTax:
		return "상속세 및 증여세법 평가"
	}
	return string(m)
}
