package accounts

import (
	"errors"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-router"
)

// RegisterAccountRoutes mounts the registration, verification, and login
// routes on the given router.
func RegisterAccountRoutes[T any](app router.Router[T], opts ...AccountControllerOption) {
	controller := NewAccountController(opts...)

	app.Get(controller.Routes.Register, controller.RegistrationShow).
		SetName("account-register.get")
	app.Post(controller.Routes.Register, controller.RegistrationCreate).
		SetName("account-register.post")

	app.Get(controller.Routes.Verify+"/:token", controller.VerifyShow).
		SetName("account-verify.get")

	app.Post(controller.Routes.Login, controller.LoginPost).
		SetName("account-login.post")
}

type AccountControllerRoutes struct {
	Register string
	Verify   string
	Login    string
}

type AccountControllerViews struct {
	Register     string
	VerifyResult string
	Login        string
}

type AccountController struct {
	Logger      Logger
	Routes      *AccountControllerRoutes
	Views       *AccountControllerViews
	Coordinator *RegistrationCoordinator
	Verifier    *VerificationHandler
	Gate        *LoginGate
	// BaseLink is passed through to the coordinator for building
	// verification links
	BaseLink string
}

type AccountControllerOption func(*AccountController) *AccountController

// WithControllerHandlers wires the three lifecycle handlers.
func WithControllerHandlers(c *RegistrationCoordinator, v *VerificationHandler, g *LoginGate) AccountControllerOption {
	return func(a *AccountController) *AccountController {
		a.Coordinator = c
		a.Verifier = v
		a.Gate = g
		return a
	}
}

// WithControllerBaseLink sets the verification link prefix.
func WithControllerBaseLink(baseLink string) AccountControllerOption {
	return func(a *AccountController) *AccountController {
		a.BaseLink = baseLink
		return a
	}
}

// WithControllerLogger overrides the default logger.
func WithControllerLogger(logger Logger) AccountControllerOption {
	return func(a *AccountController) *AccountController {
		if logger != nil {
			a.Logger = logger
		}
		return a
	}
}

func NewAccountController(opts ...AccountControllerOption) *AccountController {
	c := &AccountController{
		Logger: defLogger{},
		Routes: &AccountControllerRoutes{
			Register: "/register",
			Verify:   "/verify",
			Login:    "/login",
		},
		Views: &AccountControllerViews{
			Register:     "register",
			VerifyResult: "verify_result",
			Login:        "login",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Coordinator == nil || c.Verifier == nil || c.Gate == nil {
		panic("Missing lifecycle handlers in account controller...")
	}

	return c
}

func (a *AccountController) RegistrationShow(ctx router.Context) error {
	return ctx.Render(a.Views.Register, router.ViewContext{
		"errors": map[string]string{},
		"record": RegisterAccountMessage{},
	})
}

// RegistrationCreatePayload is the registration payload
type RegistrationCreatePayload struct {
	Email           string `form:"email" json:"email"`
	DisplayName     string `form:"display_name" json:"display_name"`
	Phone           string `form:"phone_number" json:"phone_number"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}

// Validate will validate the payload
func (r RegistrationCreatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.DisplayName, validation.Length(0, 200)),
		validation.Field(&r.Password, validation.Required, validation.Length(10, 100)),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.By(validateStringEquals(r.Password)),
		),
	)
}

func (a *AccountController) RegistrationCreate(ctx router.Context) error {
	payload := new(RegistrationCreatePayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("register account parse payload", "error", err)
		return ctx.Status(http.StatusBadRequest).Render(a.Views.Register, router.ViewContext{
			"errors": map[string]string{"form": "Failed to parse form"},
			"record": payload,
		})
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("register account validate payload", "error", err)
		return ctx.Status(http.StatusBadRequest).Render(a.Views.Register, router.ViewContext{
			"record":     payload,
			"validation": formatValidationErrors(err),
		})
	}

	req := RegisterAccountMessage{
		Email:       payload.Email,
		DisplayName: payload.DisplayName,
		Phone:       payload.Phone,
		Password:    payload.Password,
		BaseLink:    a.BaseLink,
	}

	res, err := a.Coordinator.Execute(ctx.Context(), req)
	if err != nil {
		return a.renderRegistrationError(ctx, payload, err)
	}

	return ctx.Render(a.Views.Register, router.ViewContext{
		"pending": true,
		"message": res.Message,
		"record":  RegisterAccountMessage{},
	})
}

func (a *AccountController) renderRegistrationError(ctx router.Context, payload *RegistrationCreatePayload, err error) error {
	switch {
	case IsDuplicateAccount(err):
		return ctx.Status(http.StatusConflict).Render(a.Views.Register, router.ViewContext{
			"errors": map[string]string{"email": "An account with this email already exists"},
			"record": payload,
		})
	case IsValidationError(err):
		return ctx.Status(http.StatusBadRequest).Render(a.Views.Register, router.ViewContext{
			"errors": map[string]string{"form": err.Error()},
			"record": payload,
		})
	default:
		a.Logger.Error("register account error", "error", err)
		// opaque message: backend detail is logged, never surfaced
		return ctx.Status(http.StatusInternalServerError).Render(a.Views.Register, router.ViewContext{
			"errors": map[string]string{"form": "Registration is temporarily unavailable"},
			"record": payload,
		})
	}
}

func (a *AccountController) VerifyShow(ctx router.Context) error {
	token := ctx.Param("token")

	res, err := a.Verifier.Execute(ctx.Context(), VerifyAccountMessage{Token: token})
	if err != nil {
		if !IsTokenInvalid(err) {
			a.Logger.Error("verify account error", "error", err)
		}
		return ctx.Status(http.StatusBadRequest).Render(a.Views.VerifyResult, router.ViewContext{
			"verified": false,
			"message":  "This verification link is invalid or has expired.",
		})
	}

	return ctx.Render(a.Views.VerifyResult, router.ViewContext{
		"verified": true,
		"email":    res.Account.Email,
		"message":  "Your email address has been verified. You can now sign in.",
	})
}

// LoginPayload is the login payload
type LoginPayload struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r LoginPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

func (a *AccountController) LoginPost(ctx router.Context) error {
	payload := new(LoginPayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("login parse payload", "error", err)
		return ctx.Status(http.StatusBadRequest).Render(a.Views.Login, router.ViewContext{
			"errors": map[string]string{"form": "Failed to parse form"},
		})
	}

	if err := payload.Validate(); err != nil {
		return ctx.Status(http.StatusBadRequest).Render(a.Views.Login, router.ViewContext{
			"record":     payload,
			"validation": formatValidationErrors(err),
		})
	}

	res, err := a.Gate.Execute(ctx.Context(), LoginMessage{
		Email:    payload.Email,
		Password: payload.Password,
	})

	if err != nil {
		return a.renderLoginError(ctx, payload, err)
	}

	return ctx.JSON(http.StatusOK, res)
}

func (a *AccountController) renderLoginError(ctx router.Context, payload *LoginPayload, err error) error {
	switch {
	case IsUnverified(err):
		// actionable, distinct from bad credentials
		return ctx.Status(http.StatusForbidden).Render(a.Views.Login, router.ViewContext{
			"errors": map[string]string{"verification": "Please verify your email address before signing in"},
			"record": payload,
		})
	case IsAuthenticationError(err):
		return ctx.Status(http.StatusUnauthorized).Render(a.Views.Login, router.ViewContext{
			"errors": map[string]string{"authentication": "Invalid email or password"},
			"record": payload,
		})
	default:
		a.Logger.Error("login error", "error", err)
		return ctx.Status(http.StatusInternalServerError).Render(a.Views.Login, router.ViewContext{
			"errors": map[string]string{"form": "Sign in is temporarily unavailable"},
			"record": payload,
		})
	}
}

func validateStringEquals(expected string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != expected {
			return errors.New("values must match")
		}
		return nil
	}
}

func formatValidationErrors(err error) map[string]string {
	out := map[string]string{}
	if verr, ok := err.(validation.Errors); ok {
		for field, ferr := range verr {
			if ferr != nil {
				out[field] = ferr.Error()
			}
		}
		return out
	}
	if err != nil {
		out["form"] = err.Error()
	}
	return out
}
