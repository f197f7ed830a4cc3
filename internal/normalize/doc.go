// Package normalize turns raw, heterogeneous source field values into
// canonical forms.
//
// Every function is total: any input, including a missing value, yields a
// defined result (an empty string, an empty slice or a nil pointer). A value
// that cannot be interpreted degrades to "no value" instead of failing the
// record. Functions are safe for concurrent use.
package normalize
