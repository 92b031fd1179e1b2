package accounts

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// Controller wires the lifecycle service and the Guard to the HTTP surface
type Controller struct {
	Accounts      *Accounts
	Guard         *Guard
	ResetInit     *InitiatePasswordReset
	ResetFinalize *FinalizePasswordReset
	Logger        Logger
}

type ControllerOption func(*Controller) *Controller

// WithControllerLogger overrides the controller logger
func WithControllerLogger(logger Logger) ControllerOption {
	return func(c *Controller) *Controller {
		c.Logger = logger
		return c
	}
}

// WithPasswordReset enables the feature-flagged reset endpoints
func WithPasswordReset(initialize *InitiatePasswordReset, finalize *FinalizePasswordReset) ControllerOption {
	return func(c *Controller) *Controller {
		c.ResetInit = initialize
		c.ResetFinalize = finalize
		return c
	}
}

// NewController returns a new HTTP controller
func NewController(accounts *Accounts, guard *Guard, opts ...ControllerOption) *Controller {
	c := &Controller{
		Accounts: accounts,
		Guard:    guard,
		Logger:   defLogger{},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Accounts == nil {
		panic("Missing Accounts service in controller...")
	}

	if c.Guard == nil {
		panic("Missing Guard in controller...")
	}

	return c
}

// RegisterRoutes mounts the public, authenticated, and admin surfaces.
// Reset endpoints are only mounted when the feature is wired in.
func RegisterRoutes(app *fiber.App, c *Controller) {
	v1 := app.Group("/v1")

	v1.Post("/users", c.RegisterUser)
	v1.Post("/auth/token", c.Login)

	if c.ResetInit != nil && c.ResetFinalize != nil {
		v1.Post("/auth/reset-password", c.ResetPassword)
		v1.Post("/auth/reset-password/confirm", c.ResetPasswordConfirm)
	}

	v1.Get("/users/me", c.Me)
	v1.Get("/users/is_logged_in", c.IsLoggedIn)
	v1.Get("/users/test-data", c.TestData)
	v1.Post("/users/logout", c.Logout)
	v1.Put("/users/:id", c.UpdateUser)
	v1.Delete("/users/:id", c.DeleteUser)
	v1.Post("/users/:id/activate", c.ActivateUser)

	admin := v1.Group("/admin")
	admin.Post("/create-user", c.AdminCreateUser)
	admin.Put("/update-user/:id", c.AdminUpdateUser)
	admin.Delete("/delete-user/:id", c.AdminDeleteUser)
	admin.Get("/pending-users", c.AdminPendingUsers)
	admin.Get("/users", c.AdminUserIDs)
	admin.Get("/users/:id", c.AdminGetUser)
	admin.Post("/activate-user/:id", c.AdminActivateUser)
}

// RegisterPayload is the self-registration body
type RegisterPayload struct {
	Name     string `json:"name" form:"name"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// Validate will run validation rules
func (r RegisterPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

func (c *Controller) RegisterUser(ctx *fiber.Ctx) error {
	payload := new(RegisterPayload)

	if err := ctx.BodyParser(payload); err != nil {
		return RenderError(ctx, c.Logger, errors.Wrap(err, errors.CategoryBadInput, "failed to parse request body"))
	}

	if err := payload.Validate(); err != nil {
		return RenderError(ctx, c.Logger, errors.Wrap(err, errors.CategoryValidation, err.Error()))
	}

	user, err := c.Accounts.Register(ctx.Context(), payload.Name, payload.Email, payload.Password)
	if err != nil {
		return RenderError(ctx, c.Logger, err)
	}

	return ctx.Status(fiber.StatusCreated).JSON(user)
}

// LoginPayload accepts both the JSON field "email" and the legacy form
// field "username" as the login identifier
type LoginPayload struct {
	Email    string `json:"email" form:"email"`
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

func (r LoginPayload) Identifier() string {
	if r.Email != "" {
		return r.Email
	}
	return r.Username
}

// Validate will run validation rules
func (r LoginPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Password, validation.Required),
	)
}

// TokenResponse is the login response body
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func (c *Controller) Login(ctx *fiber.Ctx) error {
	payload := new(LoginPayload)

	if err := ctx.BodyParser(payload); err != nil {
		return RenderError(ctx, c.Logger, errors.Wrap(err, errors.CategoryBadInput, "failed to parse request body"))
	}

	if err := payload.Validate(); err != nil {
		return RenderError(ctx, c.Logger, errors.Wrap(err, errors.CategoryValidation, err.Error()))
	}

	if payload.Identifier() == "" {
		return RenderError(ctx, c.Logger, errors.New("email is required", errors.CategoryValidation))
	}

	token, err := c.Accounts.Login(ctx.Context(), payload.Identifier(), payload.Password)
	if err != nil {
		return RenderError(ctx, c.Logger, err)
	}

	return ctx.JSON(TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
	})
}

func (c *Controller) Me(ctx *fiber.Ctx) error {
	user, err := c.resolve(ctx)
	if err != nil {
		return RenderError(ctx, c.Logger, err)
	}

	return ctx.JSON(user)
}

func (c *Controller) IsLoggedIn(ctx *fiber.Ctx) error {
	if _, err := c.resolve(ctx); err != nil {
		return RenderError(ctx, c.Logger, err)
	}

	return ctx.JSON(fiber.Map{"logged_in": true})
}

func (c *Controller) TestData(ctx *fiber.Ctx) error {
	user, err := c.resolve(ctx)
	if err != nil {
		return RenderError(ctx, c.Logger, err)
	}

	return ctx.JSON(fiber.Map{
		"message": "Hello, " + user.Name + "! This is protected data.",
	})
}

func (c *Controller) Logout(ctx *fiber.Ctx) error {
	user, err := c.resolve(ctx)
	if err != nil {
		return RenderError(ctx, c.Logger, err)
	}

	if _, err := c.Accounts.LogoutEverywhere(ctx.Context(), user); err != nil {
		return RenderError(ctx, c.Logger, err)
	}

	return ctx.JSON(fiber.Map{"detail": "Logged out from all sessions"})
}

// UpdateUserPayload carries the optional self-service fields
type UpdateUserPayload struct {
	Name     *string `json:"name" form:"name"`
	Email    *string `json:"email" form:"email"`
	Password *string `json:"password" form:"password"`
}

// Validate will run validation rules
func (r UpdateUserPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, is.Email),
	)
}

func (r UpdateUserPayload) patch() UserPatch {
	return UserPatch{
		Name:     r.Name,
		Email:    r.Email,
		Password: r.Password,
	}
}

func (c *Controller) UpdateUser(ctx *fiber.Ctx) error {
	actor, err := c.resolve(ctx)
	if err != nil {
		return RenderError(ctx, c.Logger, err)
	}

	targetID, err := parseUserID(ctx)
	if err != nil {
		return RenderError(ctx, c.Logger, err)
	}

	payload := new(UpdateUserPayload)
	if err := ctx.BodyParser(payload); err != nil {
		return RenderError(ctx, c.Logger, errors.Wrap(err, errors.CategoryBadInput, "failed to parse request body"))
	}

	if err := payload.Validate(); err != nil {
		return RenderError(ctx, c.Logger, errors.Wrap(err, errors.CategoryValidation, err.Error()))
	}

	user, err := c.Accounts.Update(ctx.Context(), actor, targetID, payload.patch())
	if err != nil {
		return RenderError(ctx, c.Logger, err)
	}

	return ctx.JSON(user)
}

func (c *Controller) DeleteUser(ctx *fiber.Ctx) error {
	actor, err := c.resolve(ctx)
	if err != nil {
		return RenderError(ctx, c.Logger, err)
	}

	targetID, err := parseUserID(ctx)
	if err != nil {
		return RenderError(ctx, c.Logger, err)
	}

	if err := c.Accounts.Delete(ctx.Context(), actor, targetID); err != nil {
		return RenderError(ctx, c.Logger, err)
	}

	return ctx.JSON(fiber.Map{"detail": "User deleted successfully"})
}

func (c *Controller) ActivateUser(ctx *fiber.Ctx) error {
	if _, err := c.resolve(ctx, WithMinRole(RoleAdmin)); err != nil {
		return RenderError(ctx, c.Logger, err)
	}

	targetID, err := parseUserID(ctx)
	if err != nil {
		return RenderError(ctx, c.Logger, err)
	}

	user, err := c.Accounts.Activate(ctx.Context(), targetID)
	if err != nil {
		return RenderError(ctx, c.Logger, err)
	}

	return ctx.JSON(user)
}

// AdminCreatePayload is the admin-created account body. The account is
// active immediately.
type AdminCreatePayload struct {
	Name     string `json:"name" form:"name"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
	Role     string `json:"role" form:"role"`
}

// Validate will run validation rules
func (r AdminCreatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
		validation.Field(&r.Role, validation.In("", string(RoleUser), string(RoleAdmin))),
	)
}

func (c *Controller) AdminCreateUser(ctx *fiber.Ctx) error {
	if _, err := c.resolve(ctx, WithMinRole(RoleAdmin)); err != nil {
		return RenderError(ctx, c.Logger, err)
	}

	payload := new(AdminCreatePayload)
	if err := ctx.BodyParser(payload); err != nil {
		return RenderError(ctx, c.Logger, errors.Wrap(err, errors.CategoryBadInput, "failed to parse request body"))
	}

	if err := payload.Validate(); err != nil {
		return RenderError(ctx, c.Logger, errors.Wrap(err, errors.CategoryValidation, err.Error()))
	}

	user, err := c.Accounts.AdminCreate(ctx.Context(), payload.Name, payload.Email, payload.Password, UserRole(payload.Role))
	if err != nil {
		return RenderError(ctx, c.Logger, err)
	}

	return ctx.Status(fiber.StatusCreated).JSON(user)
}

// AdminUpdatePayload allows direct patches including status and role
type AdminUpdatePayload struct {
	UpdateUserPayload
	Status *string `json:"status" form:"status"`
	Role   *string `json:"role" form:"role"`
}

// Validate will run validation rules
func (r AdminUpdatePayload) Validate() error {
	if err := r.UpdateUserPayload.Validate(); err != nil {
		return err
	}

	if r.Status != nil {
		if !UserStatus(*r.Status).IsValid() {
			return errors.New("unknown status", errors.CategoryValidation).
				WithMetadata(map[string]any{"status": *r.Status})
		}
	}

	if r.Role != nil {
		if _, ok := ParseRole(*r.Role); !ok {
			return errors.New("unknown role", errors.CategoryValidation).
				WithMetadata(map[string]any{"role": *r.Role})
		}
	}

	return nil
}

func (r AdminUpdatePayload) patch() AdminPatch {
	patch := AdminPatch{UserPatch: r.UpdateUserPayload.patch()}

	if r.Status != nil {
		status := UserStatus(*r.Status)
		patch.Status = &status
	}

	if r.Role != nil {
		role := UserRole(*r.Role)
		patch.Role = &role
	}

	return patch
}

func (c *Controller) AdminUpdateUser(ctx *fiber.Ctx) error {
	if _, err := c.resolve(ctx, WithMinRole(RoleAdmin)); err != nil {
		return RenderError(ctx, c.Logger, err)
	}

	targetID, err := parseUserID(ctx)
	if err != nil {
		return RenderError(ctx, c.Logger, err)
	}

	payload := new(AdminUpdatePayload)
	if err := ctx.BodyParser(payload); err != nil {
		return RenderError(ctx, c.Logger, errors.Wrap(err, errors.CategoryBadInput, "failed to parse request body"))
	}

	if err := payload.Validate(); err != nil {
		return RenderError(ctx, c.Logger, err)
	}

	user, err := c.Accounts.AdminUpdate(ctx.Context(), targetID, payload.patch())
	if err != nil {
		return RenderError(ctx, c.Logger, err)
	}

	return ctx.JSON(user)
}

func (c *Controller) AdminDeleteUser(ctx *fiber.Ctx) error {
	if _, err := c.resolve(ctx, WithMinRole(RoleAdmin)); err != nil {
		return RenderError(ctx, c.Logger, err)
	}

	targetID, err := parseUserID(ctx)
	if err != nil {
		return RenderError(ctx, c.Logger, err)
	}

	if err := c.Accounts.AdminDelete(ctx.Context(), targetID); err != nil {
		return RenderError(ctx, c.Logger, err)
	}

	return ctx.JSON(fiber.Map{"detail": "User deleted successfully"})
}

func (c *Controller) AdminPendingUsers(ctx *fiber.Ctx) error {
	if _, err := c.resolve(ctx, WithMinRole(RoleAdmin)); err != nil {
		return RenderError(ctx, c.Logger, err)
	}

	pending, err := c.Accounts.PendingUsers(ctx.Context())
	if err != nil {
		return RenderError(ctx, c.Logger, err)
	}

	out := make([]PublicUser, 0, len(pending))
	for _, user := range pending {
		out = append(out, user.Public())
	}

	return ctx.JSON(out)
}

func (c *Controller) AdminUserIDs(ctx *fiber.Ctx) error {
	if _, err := c.resolve(ctx, WithMinRole(RoleAdmin)); err != nil {
		return RenderError(ctx, c.Logger, err)
	}

	ids, err := c.Accounts.UserIDs(ctx.Context())
	if err != nil {
		return RenderError(ctx, c.Logger, err)
	}

	return ctx.JSON(ids)
}

func (c *Controller) AdminGetUser(ctx *fiber.Ctx) error {
	if _, err := c.resolve(ctx, WithMinRole(RoleAdmin)); err != nil {
		return RenderError(ctx, c.Logger, err)
	}

	targetID, err := parseUserID(ctx)
	if err != nil {
		return RenderError(ctx, c.Logger, err)
	}

	user, err := c.Accounts.GetUser(ctx.Context(), targetID)
	if err != nil {
		return RenderError(ctx, c.Logger, err)
	}

	return ctx.JSON(user)
}

func (c *Controller) AdminActivateUser(ctx *fiber.Ctx) error {
	return c.ActivateUser(ctx)
}

// ResetRequestPayload asks for a reset token by email
type ResetRequestPayload struct {
	Email string `json:"email" form:"email"`
}

// Validate will run validation rules
func (r ResetRequestPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

func (c *Controller) ResetPassword(ctx *fiber.Ctx) error {
	payload := new(ResetRequestPayload)

	if err := ctx.BodyParser(payload); err != nil {
		return RenderError(ctx, c.Logger, errors.Wrap(err, errors.CategoryBadInput, "failed to parse request body"))
	}

	if err := payload.Validate(); err != nil {
		return RenderError(ctx, c.Logger, errors.Wrap(err, errors.CategoryValidation, err.Error()))
	}

	if err := c.ResetInit.Execute(ctx.Context(), payload.Email); err != nil {
		return RenderError(ctx, c.Logger, err)
	}

	return ctx.JSON(fiber.Map{"detail": "Password reset email sent"})
}

// ResetConfirmPayload finalizes a reset with the mailed token
type ResetConfirmPayload struct {
	Token    string `json:"token" form:"token"`
	Password string `json:"password" form:"password"`
}

// Validate will run validation rules
func (r ResetConfirmPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Token, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

func (c *Controller) ResetPasswordConfirm(ctx *fiber.Ctx) error {
	payload := new(ResetConfirmPayload)

	if err := ctx.BodyParser(payload); err != nil {
		return RenderError(ctx, c.Logger, errors.Wrap(err, errors.CategoryBadInput, "failed to parse request body"))
	}

	if err := payload.Validate(); err != nil {
		return RenderError(ctx, c.Logger, errors.Wrap(err, errors.CategoryValidation, err.Error()))
	}

	if err := c.ResetFinalize.Execute(ctx.Context(), payload.Token, payload.Password); err != nil {
		return RenderError(ctx, c.Logger, err)
	}

	return ctx.JSON(fiber.Map{"detail": "Password has been reset"})
}

func (c *Controller) resolve(ctx *fiber.Ctx, opts ...ResolveOption) (*User, error) {
	raw, err := BearerToken(ctx)
	if err != nil {
		return nil, err
	}

	return c.Guard.Resolve(ctx.Context(), raw, opts...)
}

func parseUserID(ctx *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return uuid.Nil, errors.Wrap(err, errors.CategoryBadInput, "invalid user id").
			WithCode(errors.CodeBadRequest)
	}
	return id, nil
}
