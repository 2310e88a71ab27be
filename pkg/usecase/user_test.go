package usecase_test

import (
	"context"
	"regexp"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/riskcompass/riskcompass/pkg/domain/types"
	"github.com/riskcompass/riskcompass/pkg/repository/memory"
	"github.com/riskcompass/riskcompass/pkg/usecase"
)

func TestUserUseCase_Register(t *testing.T) {
	t.Run("create makes the user manager of a new organization", func(t *testing.T) {
		repo := memory.New()
		uc := usecase.NewUserUseCase(repo, "")

		profile, err := uc.Register(ctxAs("alice"), usecase.RegisterInput{
			Name:               "Alice",
			OrganizationAction: types.OrganizationActionCreate,
			OrganizationName:   "  Acme Builders  ",
			Industry:           types.IndustryConstruction,
		})
		gt.NoError(t, err).Required()

		gt.Value(t, profile.User.Role).Equal(types.RoleManager)
		gt.Value(t, profile.User.Email).Equal("alice@example.com")
		gt.Value(t, profile.Organization.Name).Equal("Acme Builders")
		gt.Value(t, profile.Organization.ManagerID).Equal(types.UserID("alice"))
		gt.Value(t, profile.Organization.MemberIDs).Equal([]types.UserID{"alice"})
		gt.Value(t, profile.Organization.Industry).Equal(types.IndustryConstruction)
		gt.Value(t, profile.Organization.Size).Equal(types.OrganizationSizeSmall)
		gt.NoError(t, profile.Organization.Code.Validate())
		gt.Value(t, profile.User.OrganizationID).Equal(profile.Organization.ID)
	})

	t.Run("join adds the user by case-insensitive code", func(t *testing.T) {
		repo := memory.New()
		uc := usecase.NewUserUseCase(repo, "")

		created, err := uc.Register(ctxAs("mgr"), usecase.RegisterInput{
			Name:               "Manager",
			OrganizationAction: types.OrganizationActionCreate,
			OrganizationName:   "Acme",
		})
		gt.NoError(t, err).Required()

		joined, err := uc.Register(ctxAs("bob"), usecase.RegisterInput{
			Name:               "Bob",
			OrganizationAction: types.OrganizationActionJoin,
			OrganizationCode:   " " + string(created.Organization.Code) + " ",
		})
		gt.NoError(t, err).Required()

		gt.Value(t, joined.User.Role).Equal(types.RoleUser)
		gt.Value(t, joined.User.OrganizationID).Equal(created.Organization.ID)
		gt.Bool(t, joined.Organization.HasMember("bob")).True()
		gt.Bool(t, joined.Organization.HasMember("mgr")).True()
	})

	t.Run("join with unknown code fails", func(t *testing.T) {
		repo := memory.New()
		uc := usecase.NewUserUseCase(repo, "")

		_, err := uc.Register(ctxAs("bob"), usecase.RegisterInput{
			Name:               "Bob",
			OrganizationAction: types.OrganizationActionJoin,
			OrganizationCode:   "abcdef",
		})
		gt.Error(t, err).Is(usecase.ErrInvalidOrganizationCode)

		_, err = repo.User().Get(context.Background(), "bob")
		gt.Value(t, err).NotNil()
	})

	t.Run("registering twice fails", func(t *testing.T) {
		repo := memory.New()
		uc := usecase.NewUserUseCase(repo, "")
		input := usecase.RegisterInput{
			Name:               "Alice",
			OrganizationAction: types.OrganizationActionCreate,
			OrganizationName:   "Acme",
		}

		_, err := uc.Register(ctxAs("alice"), input)
		gt.NoError(t, err).Required()
		_, err = uc.Register(ctxAs("alice"), input)
		gt.Error(t, err).Is(usecase.ErrAlreadyRegistered)
	})

	t.Run("seed admin email gets admin role", func(t *testing.T) {
		repo := memory.New()
		uc := usecase.NewUserUseCase(repo, "ROOT@example.com")

		profile, err := uc.Register(ctxAs("root"), usecase.RegisterInput{
			Name:               "Root",
			OrganizationAction: types.OrganizationActionCreate,
			OrganizationName:   "Ops",
		})
		gt.NoError(t, err).Required()
		gt.Value(t, profile.User.Role).Equal(types.RoleAdmin)
	})

	t.Run("invalid input is rejected", func(t *testing.T) {
		repo := memory.New()
		uc := usecase.NewUserUseCase(repo, "")

		cases := map[string]usecase.RegisterInput{
			"missing organization name": {Name: "A", OrganizationAction: types.OrganizationActionCreate, OrganizationName: "   "},
			"missing organization code": {Name: "A", OrganizationAction: types.OrganizationActionJoin},
			"unknown action":            {Name: "A", OrganizationAction: "merge"},
			"unknown industry":          {Name: "A", OrganizationAction: types.OrganizationActionCreate, OrganizationName: "X", Industry: "Mining"},
		}
		for name, input := range cases {
			t.Run(name, func(t *testing.T) {
				_, err := uc.Register(ctxAs("alice"), input)
				gt.Error(t, err).Is(usecase.ErrValidation)
			})
		}
	})

	t.Run("name falls back to the principal name", func(t *testing.T) {
		repo := memory.New()
		uc := usecase.NewUserUseCase(repo, "")

		profile, err := uc.Register(ctxAs("carol"), usecase.RegisterInput{
			OrganizationAction: types.OrganizationActionCreate,
			OrganizationName:   "C Corp",
		})
		gt.NoError(t, err).Required()
		gt.Value(t, profile.User.Name).Equal("carol")
	})

	t.Run("without principal fails", func(t *testing.T) {
		uc := usecase.NewUserUseCase(memory.New(), "")
		_, err := uc.Register(context.Background(), usecase.RegisterInput{})
		gt.Error(t, err).Is(usecase.ErrUnauthenticated)
	})
}

func TestUserUseCase_OrganizationCodeRetry(t *testing.T) {
	repo := memory.New()
	uc := usecase.NewUserUseCase(repo, "")

	codes := []types.OrganizationCode{"AAAAAA", "AAAAAA", "BBBBBB"}
	calls := 0
	usecase.SetCodeGenerator(uc, func() (types.OrganizationCode, error) {
		code := codes[calls]
		calls++
		return code, nil
	})

	first, err := uc.Register(ctxAs("u1"), usecase.RegisterInput{
		Name: "U1", OrganizationAction: types.OrganizationActionCreate, OrganizationName: "One",
	})
	gt.NoError(t, err).Required()
	gt.Value(t, first.Organization.Code).Equal(types.OrganizationCode("AAAAAA"))

	second, err := uc.Register(ctxAs("u2"), usecase.RegisterInput{
		Name: "U2", OrganizationAction: types.OrganizationActionCreate, OrganizationName: "Two",
	})
	gt.NoError(t, err).Required()
	gt.Value(t, second.Organization.Code).Equal(types.OrganizationCode("BBBBBB"))
	gt.Number(t, calls).Equal(3)

	t.Run("gives up after bounded attempts", func(t *testing.T) {
		usecase.SetCodeGenerator(uc, func() (types.OrganizationCode, error) {
			return "AAAAAA", nil
		})
		_, err := uc.Register(ctxAs("u3"), usecase.RegisterInput{
			Name: "U3", OrganizationAction: types.OrganizationActionCreate, OrganizationName: "Three",
		})
		gt.Value(t, err).NotNil()
	})
}

func TestRandomOrganizationCode(t *testing.T) {
	pattern := regexp.MustCompile(`^[0-9A-F]{6}$`)
	for range 20 {
		code, err := usecase.RandomOrganizationCode()
		gt.NoError(t, err).Required()
		gt.Bool(t, pattern.MatchString(string(code))).True()
	}
}

func TestUserUseCase_Profile(t *testing.T) {
	repo := memory.New()
	uc := usecase.NewUserUseCase(repo, "")

	_, err := uc.Profile(ctxAs("alice"))
	gt.Error(t, err).Is(usecase.ErrUserNotFound)

	registered, err := uc.Register(ctxAs("alice"), usecase.RegisterInput{
		Name: "Alice", OrganizationAction: types.OrganizationActionCreate, OrganizationName: "Acme",
	})
	gt.NoError(t, err).Required()

	profile, err := uc.Profile(ctxAs("alice"))
	gt.NoError(t, err).Required()
	gt.Value(t, profile.User.Name).Equal("Alice")
	gt.Value(t, profile.Organization.ID).Equal(registered.Organization.ID)

	putUser(t, repo, "loner", "")
	lonely, err := uc.Profile(ctxAs("loner"))
	gt.NoError(t, err).Required()
	gt.Value(t, lonely.Organization).Nil()
}

func registerAs(t *testing.T, uc *usecase.UserUseCase, id types.UserID) {
	t.Helper()
	_, err := uc.Register(ctxAs(id), usecase.RegisterInput{
		Name:               "Name of " + string(id),
		OrganizationAction: types.OrganizationActionCreate,
		OrganizationName:   "Org of " + string(id),
	})
	gt.NoError(t, err).Required()
}

func TestUserUseCase_InitAdmin(t *testing.T) {
	t.Run("promotes a user registered before the seed email was set", func(t *testing.T) {
		repo := memory.New()
		registerAs(t, usecase.NewUserUseCase(repo, ""), "root")

		uc := usecase.NewUserUseCase(repo, "Root@Example.com")
		result, err := uc.InitAdmin(context.Background())
		gt.NoError(t, err).Required()
		gt.Value(t, result.Message).Equal("Existing user promoted to admin")
		gt.Value(t, result.User.Role).Equal(types.RoleAdmin)

		stored, err := repo.User().Get(context.Background(), "root")
		gt.NoError(t, err).Required()
		gt.Value(t, stored.Role).Equal(types.RoleAdmin)
		gt.Value(t, stored.OrganizationID).Equal(result.User.OrganizationID)

		again, err := uc.InitAdmin(context.Background())
		gt.NoError(t, err).Required()
		gt.Value(t, again.Message).Equal("Admin user already exists")
	})

	t.Run("seed admin not registered", func(t *testing.T) {
		uc := usecase.NewUserUseCase(memory.New(), "root@example.com")
		_, err := uc.InitAdmin(context.Background())
		gt.Error(t, err).Is(usecase.ErrUserNotFound)
	})

	t.Run("seed admin not configured", func(t *testing.T) {
		uc := usecase.NewUserUseCase(memory.New(), "")
		_, err := uc.InitAdmin(context.Background())
		gt.Error(t, err).Is(usecase.ErrValidation)
	})
}

func TestUserUseCase_PromoteAdmin(t *testing.T) {
	repo := memory.New()
	uc := usecase.NewUserUseCase(repo, "root@example.com")
	registerAs(t, uc, "root")
	registerAs(t, uc, "bob")
	registerAs(t, uc, "carol")

	t.Run("only the seed admin may promote", func(t *testing.T) {
		_, err := uc.PromoteAdmin(ctxAs("bob"), "carol@example.com")
		gt.Error(t, err).Is(usecase.ErrForbidden)

		carol, err := repo.User().Get(context.Background(), "carol")
		gt.NoError(t, err).Required()
		gt.Value(t, carol.Role).Equal(types.RoleManager)
	})

	t.Run("promotes by case-insensitive email", func(t *testing.T) {
		result, err := uc.PromoteAdmin(ctxAs("root"), " Bob@Example.COM ")
		gt.NoError(t, err).Required()
		gt.Value(t, result.User.ID).Equal(types.UserID("bob"))
		gt.Value(t, result.User.Role).Equal(types.RoleAdmin)

		stored, err := repo.User().Get(context.Background(), "bob")
		gt.NoError(t, err).Required()
		gt.Value(t, stored.Role).Equal(types.RoleAdmin)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := uc.PromoteAdmin(ctxAs("root"), "nobody@example.com")
		gt.Error(t, err).Is(usecase.ErrUserNotFound)
	})

	t.Run("empty email", func(t *testing.T) {
		_, err := uc.PromoteAdmin(ctxAs("root"), "  ")
		gt.Error(t, err).Is(usecase.ErrValidation)
	})

	t.Run("no principal", func(t *testing.T) {
		_, err := uc.PromoteAdmin(context.Background(), "bob@example.com")
		gt.Error(t, err).Is(usecase.ErrUnauthenticated)
	})
}
