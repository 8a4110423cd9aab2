package treasurer

import (
	"classfund/app/routes/auth"

	"github.com/gofiber/fiber/v2"
)

func SetupTreasurerRoutes(app *fiber.App) {
	t := app.Group("/treasurer",
		auth.RequireAuth, auth.ResolveClass, auth.RequireTreasurer, auth.InjectFundBalance)

	t.Get("/", DashboardHandler)

	t.Get("/payment-requests/new", ShowCreatePaymentRequestPage)
	t.Post("/payment-requests/new", CreatePaymentRequestHandler)

	t.Get("/transactions/log", ShowLogTransactionPage)
	t.Get("/transactions/log/:pr_id/:student_id", ShowLogTransactionPage)
	t.Post("/transactions/log", LogTransactionHandler)
	// POST only; Fiber answers GET with 405 since no GET route matches.
	t.Post("/transactions/confirm", ConfirmPendingHandler)

	t.Get("/api/student-requests/:student_id", StudentRequestsJSON)

	t.Get("/expenses/log", ShowExpensePage)
	t.Get("/expenses/log/:id", ShowExpensePage)
	t.Post("/expenses/log", SaveExpenseHandler)
	t.Post("/expenses/log/:id", SaveExpenseHandler)
	t.Post("/expenses/delete/:id", DeleteExpenseHandler)

	t.Get("/bank-account", ShowBankAccountPage)
	t.Post("/bank-account", SaveBankAccountHandler)

	t.Post("/reminders/send", SendRemindersHandler)
}
