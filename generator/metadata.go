package generator

// Dataverse Web API metadata shapes. Only the fields this tool sets are
// modeled; the API tolerates omitted optional members. Field names and
// @odata.type markers follow the v9.2 metadata entity contracts.

const languageCode = 1033

type Label struct {
	LocalizedLabels []LocalizedLabel `json:"LocalizedLabels"`
}

type LocalizedLabel struct {
	Label        string `json:"Label"`
	LanguageCode int    `json:"LanguageCode"`
}

func NewLabel(text string) Label {
	return Label{LocalizedLabels: []LocalizedLabel{{Label: text, LanguageCode: languageCode}}}
}

type RequiredLevel struct {
	Value string `json:"Value"` // None, ApplicationRequired, SystemRequired
}

type EntityMetadata struct {
	SchemaName            string              `json:"SchemaName"`
	DisplayName           Label               `json:"DisplayName"`
	DisplayCollectionName Label               `json:"DisplayCollectionName"`
	Description           *Label              `json:"Description,omitempty"`
	OwnershipType         string              `json:"OwnershipType"`
	HasNotes              bool                `json:"HasNotes"`
	HasActivities         bool                `json:"HasActivities"`
	Attributes            []AttributeMetadata `json:"Attributes"`
}

type AttributeMetadata struct {
	ODataType     string        `json:"@odata.type"`
	SchemaName    string        `json:"SchemaName"`
	DisplayName   Label         `json:"DisplayName"`
	Description   *Label        `json:"Description,omitempty"`
	RequiredLevel RequiredLevel `json:"RequiredLevel"`
	IsPrimaryName bool          `json:"IsPrimaryName,omitempty"`

	MaxLength  int                `json:"MaxLength,omitempty"`  // string
	FormatName *StringFormatName  `json:"FormatName,omitempty"` // string
	Format     string             `json:"Format,omitempty"`     // datetime: DateOnly / DateAndTime
	Precision  int                `json:"Precision,omitempty"`  // decimal
	OptionSet  *OptionSetMetadata `json:"OptionSet,omitempty"`  // bool / choice
}

type StringFormatName struct {
	Value string `json:"Value"`
}

type OptionSetMetadata struct {
	ODataType     string           `json:"@odata.type"`
	Name          string           `json:"Name,omitempty"`
	DisplayName   Label            `json:"DisplayName"`
	IsGlobal      bool             `json:"IsGlobal"`
	OptionSetType string           `json:"OptionSetType"`
	TrueOption    *OptionMetadata  `json:"TrueOption,omitempty"`
	FalseOption   *OptionMetadata  `json:"FalseOption,omitempty"`
	Options       []OptionMetadata `json:"Options,omitempty"`
}

type OptionMetadata struct {
	Value int   `json:"Value"`
	Label Label `json:"Label"`
}

type LookupAttributeMetadata struct {
	ODataType     string        `json:"@odata.type"`
	SchemaName    string        `json:"SchemaName"`
	DisplayName   Label         `json:"DisplayName"`
	RequiredLevel RequiredLevel `json:"RequiredLevel"`
}

type OneToManyRelationshipMetadata struct {
	ODataType         string                  `json:"@odata.type"`
	SchemaName        string                  `json:"SchemaName"`
	ReferencedEntity  string                  `json:"ReferencedEntity"`
	ReferencingEntity string                  `json:"ReferencingEntity"`
	Lookup            LookupAttributeMetadata `json:"Lookup"`
}

// Publisher and Solution are plain records, not metadata entities, so
// their JSON members are lowercase logical names.
type Publisher struct {
	UniqueName                     string `json:"uniquename"`
	FriendlyName                   string `json:"friendlyname"`
	CustomizationPrefix            string `json:"customizationprefix"`
	CustomizationOptionValuePrefix int    `json:"customizationoptionvalueprefix"`
}

type Solution struct {
	UniqueName   string `json:"uniquename"`
	FriendlyName string `json:"friendlyname"`
	Version      string `json:"version"`
	PublisherRef string `json:"publisherid@odata.bind,omitempty"`
}
