package routes

import (
	"Gin_postgres_redis_library/app"
	"Gin_postgres_redis_library/controllers"
	"Gin_postgres_redis_library/session"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, a *app.App) {
	// 控制器与依赖
	s := controllers.GetSrv(a)
	authCtl := controllers.NewAuthController(s.Repo, s.AppSess, s.Tokens)
	catalogCtl := controllers.NewCatalogController(s.Catalog)
	loanCtl := controllers.NewLoanController(s.Loans)
	uc := controllers.GetUserController(s.Repo, s.AppSess, a.Config)

	// 复用的中间件
	authMW := app.AuthRequired(s.Tokens, s.AppSess, s.Repo, a.Config)
	adminMW := app.AdminOnly()
	seenMW := app.TouchLastSeen(s.Repo, session.NewThrottle(a.RDB, "lib:lastseen:", a.Config.LastSeenThrottle))

	api := r.Group("/api")

	// ------------------------------
	// 账号
	// ------------------------------
	authG := api.Group("/auth")
	{
		authG.POST("/register", authCtl.Register)
		authG.POST("/login", authCtl.Login)
	}
	authMe := authG.Group("", authMW, seenMW)
	{
		authMe.GET("/profile", authCtl.Profile)
		authMe.POST("/logout", authCtl.Logout)
	}

	// ------------------------------
	// 馆藏：读公开，写需登录
	// ------------------------------
	authors := api.Group("/authors")
	{
		authors.GET("", catalogCtl.ListAuthors)
		authors.GET("/:id", catalogCtl.GetAuthor)
	}
	authorsW := authors.Group("", authMW, seenMW)
	{
		authorsW.POST("", catalogCtl.CreateAuthor)
		authorsW.PUT("/:id", catalogCtl.UpdateAuthor)
		authorsW.DELETE("/:id", catalogCtl.DeleteAuthor)
	}

	categories := api.Group("/categories")
	{
		categories.GET("", catalogCtl.ListCategories)
		categories.GET("/:id", catalogCtl.GetCategory)
	}
	categoriesW := categories.Group("", authMW, seenMW)
	{
		categoriesW.POST("", catalogCtl.CreateCategory)
		categoriesW.PUT("/:id", catalogCtl.UpdateCategory)
		categoriesW.DELETE("/:id", catalogCtl.DeleteCategory)
	}

	books := api.Group("/books")
	{
		books.GET("", catalogCtl.ListBooks) // ?title=&categoryId=&available=
		books.GET("/:id", catalogCtl.GetBook)
	}
	booksW := books.Group("", authMW, seenMW)
	{
		booksW.POST("", catalogCtl.CreateBook)
		booksW.PUT("/:id", catalogCtl.UpdateBook)
		booksW.DELETE("/:id", catalogCtl.DeleteBook)
	}

	// ------------------------------
	// 借还
	// ------------------------------
	loans := api.Group("/loans", authMW, seenMW)
	{
		loans.GET("", loanCtl.List) // ?userId=&status=&overdue=
		loans.GET("/mine", loanCtl.Mine)
		loans.GET("/:id", loanCtl.Get)
		loans.GET("/:id/events", loanCtl.Events)
		loans.POST("", loanCtl.Create)
		loans.PUT("/:id/return", loanCtl.Return)
	}

	// ------------------------------
	// 用户管理（仅管理员）
	// ------------------------------
	users := api.Group("/users", authMW, adminMW)
	{
		users.GET("", uc.ListUsers) // ?q=&page=&size=
		users.GET("/:id", uc.GetUser)
		users.PUT("/:id/admin", uc.SetAdmin)
		users.DELETE("/:id", uc.DeleteUser)
	}
}
