package types

// Entity state namespaces and their index names.
const (
	UserEntity         = "user"
	UserIndex          = "users"
	SponsorEntity      = "sponsor"
	SponsorIndex       = "sponsors"
	CenterEntity       = "center"
	CenterIndex        = "centers"
	InvestigatorEntity = "investigator"
	InvestigatorIndex  = "investigators"
	ProjectCodeEntity  = "projectCode"
	ProjectCodeIndex   = "projectCodes"
	WorkDoneEntity     = "workDone"
	WorkDoneIndex      = "workDones"
	RecordEntity       = "sdc"
	RecordIndex        = "sdcs"
	DocumentEntity     = "document"
	DocumentIndex      = "documents"
	ChatEntity         = "chat"
	ChatIndex          = "chats"
)

// StandardIndexNames lists every index name for enumeration.
var StandardIndexNames = []string{
	UserIndex,
	SponsorIndex,
	CenterIndex,
	InvestigatorIndex,
	ProjectCodeIndex,
	WorkDoneIndex,
	RecordIndex,
	DocumentIndex,
	ChatIndex,
}
