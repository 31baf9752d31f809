package tracker

import (
	"time"

	"github.com/mesh-intelligence/sdctrack/internal/entity"
	"github.com/mesh-intelligence/sdctrack/pkg/types"
)

// seedUser is a default account created on first bootstrap. Passwords are
// hashed when the rows are built.
type seedUser struct {
	username string
	password string
	role     types.Role
	active   bool
}

var defaultUsers = []seedUser{
	{types.SuperAdminUsername, "2008", types.RoleL3, true},
	{"admin1", "password", types.RoleL2, true},
	{"admin2", "password", types.RoleL2, false},
	{"user1", "password", types.RoleL1, true},
	{"user2", "password", types.RoleL1, true},
	{"user3", "password", types.RoleL1, false},
}

// definitionTypes maps each kind to its state and index namespaces.
var definitionTypes = map[types.DefinitionKind]struct{ entity, index string }{
	types.KindSponsor:      {types.SponsorEntity, types.SponsorIndex},
	types.KindCenter:       {types.CenterEntity, types.CenterIndex},
	types.KindInvestigator: {types.InvestigatorEntity, types.InvestigatorIndex},
	types.KindProjectCode:  {types.ProjectCodeEntity, types.ProjectCodeIndex},
	types.KindWorkDone:     {types.WorkDoneEntity, types.WorkDoneIndex},
}

var defaultDefinitions = map[types.DefinitionKind][]string{
	types.KindSponsor:      {"Sponsor A", "Sponsor B", "Sponsor C"},
	types.KindCenter:       {"Merkez 1", "Merkez 2", "Merkez 3"},
	types.KindInvestigator: {"Dr. Ahmet Yılmaz", "Dr. Ayşe Kaya", "Prof. Dr. Can Demir"},
	types.KindProjectCode:  {"PROJ-001", "PROJ-002", "PROJ-003"},
	types.KindWorkDone:     {"Veri Girişi", "Hasta Ziyareti", "Raporlama", "Analiz"},
}

func userDescriptor(seed []types.User) entity.Descriptor[types.User] {
	return entity.Descriptor[types.User]{
		Name:      types.UserEntity,
		IndexName: types.UserIndex,
		Initial:   types.User{Role: types.RoleL1},
		Seed:      seed,
	}
}

func definitionDescriptor(kind types.DefinitionKind) entity.Descriptor[types.Definition] {
	names := definitionTypes[kind]
	seed := make([]types.Definition, 0, len(defaultDefinitions[kind]))
	for _, name := range defaultDefinitions[kind] {
		seed = append(seed, types.Definition{Name: name})
	}
	return entity.Descriptor[types.Definition]{
		Name:      names.entity,
		IndexName: names.index,
		Seed:      seed,
	}
}

func recordDescriptor() entity.Descriptor[types.Record] {
	return entity.Descriptor[types.Record]{
		Name:      types.RecordEntity,
		IndexName: types.RecordIndex,
		Initial:   types.Record{WorkDone: []types.WorkItem{}},
	}
}

func documentDescriptor(now time.Time) entity.Descriptor[types.Document] {
	ms := now.UnixMilli()
	return entity.Descriptor[types.Document]{
		Name:      types.DocumentEntity,
		IndexName: types.DocumentIndex,
		Initial:   types.Document{Category: types.CategoryArchive},
		Seed: []types.Document{
			{
				Name:      "Kullanici_Kilavuzu_v1.2.pdf",
				Category:  types.CategoryTraining,
				Path:      "https://www.w3.org/WAI/ER/tests/xhtml/testfiles/resources/pdf/dummy.pdf",
				CreatedAt: ms - 10000,
			},
			{
				Name:      "SDC_Giris_Egitimi.pdf",
				Category:  types.CategoryTraining,
				Path:      "https://www.africau.edu/images/default/sample.pdf",
				CreatedAt: ms - 20000,
			},
			{
				Name:      "Proje_Kapanis_Raporu.pdf",
				Category:  types.CategoryArchive,
				Path:      "https://www.clickdimensions.com/links/TestPDFfile.pdf",
				CreatedAt: ms - 30000,
			},
		},
	}
}

// generalChatID is the board seeded on first bootstrap.
const generalChatID = "c1"

func chatDescriptor(now time.Time) entity.Descriptor[types.ChatBoard] {
	return entity.Descriptor[types.ChatBoard]{
		Name:      types.ChatEntity,
		IndexName: types.ChatIndex,
		Initial:   types.ChatBoard{Messages: []types.ChatMessage{}},
		Seed: []types.ChatBoard{{
			ID:    generalChatID,
			Title: "General",
			Messages: []types.ChatMessage{
				{ID: "m1", ChatID: generalChatID, UserID: "u1", Text: "Hello", TS: now.UnixMilli()},
			},
		}},
	}
}
