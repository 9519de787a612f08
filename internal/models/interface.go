package models

// Param is one entry of a flat parameter list (query string or form body).
// Required is the YApi string flag: "0" means optional, anything else
// means required.
type Param struct {
	ID       string `json:"_id,omitempty"`
	Name     string `json:"name"`
	Desc     string `json:"desc,omitempty"`
	Type     string `json:"type,omitempty"`
	Required string `json:"required"`
}

// IsOptional reports whether the parameter was marked optional.
func (p Param) IsOptional() bool {
	return p.Required == "0"
}

// Body types as reported by YApi for request and response payloads.
const (
	BodyTypeJSON = "json"
	BodyTypeForm = "form"
	BodyTypeRaw  = "raw"
)

// InterfaceInfo is the subset of a YApi interface description that code
// generation reads.
type InterfaceInfo struct {
	ID                  int     `json:"_id"`
	ProjectID           int     `json:"project_id"`
	CatID               int     `json:"catid"`
	Title               string  `json:"title"`
	Method              string  `json:"method"`
	Path                string  `json:"path"`
	Status              string  `json:"status,omitempty"`
	Desc                string  `json:"desc,omitempty"`
	ReqParams           []Param `json:"req_params,omitempty"`
	ReqQuery            []Param `json:"req_query,omitempty"`
	ReqBodyType         string  `json:"req_body_type,omitempty"`
	ReqBodyForm         []Param `json:"req_body_form,omitempty"`
	ReqBodyOther        string  `json:"req_body_other,omitempty"`
	ReqBodyIsJSONSchema bool    `json:"req_body_is_json_schema"`
	ResBodyType         string  `json:"res_body_type,omitempty"`
	ResBody             string  `json:"res_body,omitempty"`
	ResBodyIsJSONSchema bool    `json:"res_body_is_json_schema"`
}
