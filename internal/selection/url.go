package selection

import (
	"net/url"
)

// URL query parameters carrying the configurator state.
const (
	ParamProductID     = "productId"
	ParamOptionIDs     = "optionIds"
	ParamOptionsByType = "optionsByType"
)

// State is what the navigable URL holds.
type State struct {
	ProductID string
	Selection *Selection
}

// Codec reads and writes State from URL query values.
type Codec struct {
	DefaultProductID string
}

func NewCodec(defaultProductID string) Codec {
	return Codec{DefaultProductID: defaultProductID}
}

// Decode never fails: a missing productId falls back to the default and a
// malformed optionsByType yields an empty Selection. optionIds carries no type
// names, so it is not used to rebuild the Selection.
func (c Codec) Decode(values url.Values) State {
	st := State{
		ProductID: values.Get(ParamProductID),
		Selection: New(),
	}
	if st.ProductID == "" {
		st.ProductID = c.DefaultProductID
	}

	raw := values.Get(ParamOptionsByType)
	if raw == "" {
		return st
	}
	sel := New()
	if err := sel.UnmarshalJSON([]byte(raw)); err == nil {
		st.Selection = sel
	}
	return st
}

// Encode writes both Selection encodings together so they never diverge. An
// empty Selection removes them.
func (c Codec) Encode(values url.Values, st State) {
	productID := st.ProductID
	if productID == "" {
		productID = c.DefaultProductID
	}
	values.Set(ParamProductID, productID)

	if st.Selection.Len() == 0 {
		values.Del(ParamOptionsByType)
		values.Del(ParamOptionIDs)
		return
	}

	encoded, _ := st.Selection.MarshalJSON()
	values.Set(ParamOptionsByType, string(encoded))
	if joined := st.Selection.Joined(); joined != "" {
		values.Set(ParamOptionIDs, joined)
	} else {
		values.Del(ParamOptionIDs)
	}
}

// Query returns the encoded query string for st.
func (c Codec) Query(st State) string {
	values := url.Values{}
	c.Encode(values, st)
	return values.Encode()
}
