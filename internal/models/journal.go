package models

import "time"

// Deposit is one accepted funding call. Amounts are stored as decimal
// strings because wei and 18-decimal USD values overflow int64.
type Deposit struct {
	ID        int64     `json:"id"`
	Address   string    `json:"address"`
	AmountWei string    `json:"amountWei"`
	USDValue  string    `json:"usdValue"`
	Timestamp time.Time `json:"timestamp"`
	CreatedAt time.Time `json:"createdAt"`
}

// Withdrawal is one completed owner sweep.
type Withdrawal struct {
	ID             int64     `json:"id"`
	Owner          string    `json:"owner"`
	SweptWei       string    `json:"sweptWei"`
	FundersCleared int       `json:"fundersCleared"`
	Timestamp      time.Time `json:"timestamp"`
	CreatedAt      time.Time `json:"createdAt"`
}

// JournalStats summarizes the deposit journal.
type JournalStats struct {
	TotalDeposits    int64      `json:"totalDeposits"`
	UniqueFunders    int64      `json:"uniqueFunders"`
	TotalWithdrawals int64      `json:"totalWithdrawals"`
	FirstDeposit     *time.Time `json:"firstDeposit"`
	LastDeposit      *time.Time `json:"lastDeposit"`
}
