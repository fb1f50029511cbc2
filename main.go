package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"ordertrees/src/model"
	"ordertrees/src/tree"
)

func SetupLogger() {
	levelStr := strings.ToLower(os.Getenv("LOG_LEVEL"))

	level, err := logger.ParseLevel(levelStr)
	if err != nil {
		level = logger.InfoLevel
	}

	logger.SetLevel(level)
	logger.SetFormatter(&logger.TextFormatter{
		FullTimestamp: true,
	})
}

func main() {
	SetupLogger()

	app := cli.NewApp()
	app.Name = "ordertrees"
	app.Usage = "Manage a directory-backed order tree"

	app.Commands = []cli.Command{
		stageCMD,
		showCMD,
		listCMD,
		stagedCMD,
		combineCMD,
		completeCMD,
		deleteCMD,
		rebuildCMD,
		treeCMD,
	}

	if err := app.Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var (
	stageCMD = cli.Command{
		Name:      "stage",
		Usage:     "stage a new order",
		Action:    stageAction,
		ArgsUsage: "",
		Flags: []cli.Flag{
			cli.StringFlag{Name: "symbol", Usage: "instrument identifier"},
			cli.StringFlag{Name: "amount", Usage: "order size"},
			cli.StringFlag{Name: "price", Usage: "limit target price"},
			cli.StringFlag{Name: "side", Usage: "buy or sell"},
			cli.StringFlag{Name: "stop", Usage: "stop price (optional)"},
			cli.StringFlag{Name: "account", Usage: "owning account tag (optional)"},
		},
		Description: `Stage a new order into the collection directory`,
	}
	showCMD = cli.Command{
		Name:        "show",
		Usage:       "show an order by order id",
		Action:      showAction,
		ArgsUsage:   "ORDER_ID",
		Description: `Print the order document as JSON`,
	}
	listCMD = cli.Command{
		Name:        "list",
		Usage:       "list all record ids",
		Action:      listAction,
		Description: `List every record id in the collection directory`,
	}
	stagedCMD = cli.Command{
		Name:        "staged",
		Usage:       "list staged orders",
		Action:      stagedAction,
		Description: `Print every order currently marked staged`,
	}
	combineCMD = cli.Command{
		Name:      "combine",
		Usage:     "combine orders into the first one",
		Action:    combineAction,
		ArgsUsage: "ORDER_ID...",
		Flags: []cli.Flag{
			cli.BoolFlag{Name: "complete", Usage: "archive merged orders instead of deleting"},
		},
		Description: `Merge same-side orders into the first; size-weighted average price`,
	}
	completeCMD = cli.Command{
		Name:        "complete",
		Usage:       "archive an order into completed/",
		Action:      completeAction,
		ArgsUsage:   "ORDER_ID",
		Description: `Move the order file to the completed area`,
	}
	deleteCMD = cli.Command{
		Name:        "delete",
		Usage:       "delete an order",
		Action:      deleteAction,
		ArgsUsage:   "ORDER_ID",
		Description: `Remove the order file permanently`,
	}
	rebuildCMD = cli.Command{
		Name:        "rebuild",
		Usage:       "rebuild the order id index",
		Action:      rebuildAction,
		Description: `Scan every record and rebuild the order_id mapping`,
	}
	treeCMD = cli.Command{
		Name:        "tree",
		Usage:       "dump the tree containing an order",
		Action:      treeAction,
		ArgsUsage:   "ORDER_ID",
		Description: `Walk to the root and dump the whole tree in order`,
	}
)

func openTree() (*tree.Tree, error) {
	return tree.FromConfig(tree.GetConfig())
}

func stageAction(c *cli.Context) error {
	t, err := openTree()
	if err != nil {
		return err
	}

	amount, err := decimal.NewFromString(c.String("amount"))
	if err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}
	price, err := decimal.NewFromString(c.String("price"))
	if err != nil {
		return fmt.Errorf("invalid price: %w", err)
	}

	req := tree.StageRequest{
		Symbol:      c.String("symbol"),
		Amount:      amount,
		TargetPrice: price,
		Side:        model.Side(c.String("side")),
		Account:     c.String("account"),
	}
	if stop := c.String("stop"); stop != "" {
		req.StopPrice, err = decimal.NewFromString(stop)
		if err != nil {
			return fmt.Errorf("invalid stop price: %w", err)
		}
	}

	order, err := t.Stage(req)
	if err != nil {
		return err
	}
	fmt.Println(order.ID())
	return nil
}

func showAction(c *cli.Context) error {
	t, err := openTree()
	if err != nil {
		return err
	}

	order, err := t.LookupOrder(c.Args().First())
	if err != nil {
		return err
	}
	if order == nil {
		return fmt.Errorf("order %s not found", c.Args().First())
	}

	raw, err := json.MarshalIndent(order.Data(), "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(raw))
	return nil
}

func listAction(c *cli.Context) error {
	t, err := openTree()
	if err != nil {
		return err
	}

	ids, err := t.Store().ListIDs()
	if err != nil {
		return err
	}
	for _, id := range ids {
		fmt.Println(id)
	}
	return nil
}

func stagedAction(c *cli.Context) error {
	t, err := openTree()
	if err != nil {
		return err
	}

	staged, err := t.StagedOrders()
	if err != nil {
		return err
	}
	for _, order := range staged {
		fmt.Printf("%s %s %s\n", order.OrderID(), order.Side(), order.Symbol())
	}
	return nil
}

func combineAction(c *cli.Context) error {
	t, err := openTree()
	if err != nil {
		return err
	}

	var orders []*model.Order
	for _, orderID := range c.Args() {
		order, err := t.LookupOrder(orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return fmt.Errorf("order %s not found", orderID)
		}
		orders = append(orders, order)
	}
	if len(orders) == 0 {
		return fmt.Errorf("no orders given")
	}

	opts := t.CombineDefaults()
	opts.Complete = c.Bool("complete")

	combined, err := t.Combine(orders, opts)
	if err != nil {
		return err
	}
	fmt.Println(combined.ID())
	return nil
}

func completeAction(c *cli.Context) error {
	t, err := openTree()
	if err != nil {
		return err
	}

	_, err = t.Complete(c.Args().First())
	return err
}

func deleteAction(c *cli.Context) error {
	t, err := openTree()
	if err != nil {
		return err
	}
	return t.Delete(c.Args().First())
}

func rebuildAction(c *cli.Context) error {
	t, err := openTree()
	if err != nil {
		return err
	}
	return t.Rebuild()
}

func treeAction(c *cli.Context) error {
	t, err := openTree()
	if err != nil {
		return err
	}

	order, err := t.LookupOrder(c.Args().First())
	if err != nil {
		return err
	}
	if order == nil {
		return fmt.Errorf("order %s not found", c.Args().First())
	}

	root, err := t.FindRoot(order)
	if err != nil {
		return err
	}
	return t.DumpTree(os.Stdout, root)
}
