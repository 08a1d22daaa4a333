package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	appbook "github.com/xiebiao/stockmanagement/internal/application/book"
	"github.com/xiebiao/stockmanagement/internal/domain/book"
	apperrors "github.com/xiebiao/stockmanagement/pkg/errors"
	"github.com/xiebiao/stockmanagement/pkg/mq"
)

func newListCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "列出全部图书（按书名排序）",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := o.getApp(cmd.Context())
			if err != nil {
				return err
			}
			resp, err := app.ListBooks.Execute(cmd.Context())
			if err != nil {
				return err
			}
			return o.render(cmd.OutOrStdout(), resp, func(w io.Writer) error {
				if resp.Total == 0 {
					_, err := fmt.Fprintln(w, "没有图书")
					return err
				}
				return writeBookTable(w, resp.List)
			})
		},
	}
}

func newGetCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "查看图书详情",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			app, err := o.getApp(cmd.Context())
			if err != nil {
				return err
			}
			dto, err := app.GetBook.Execute(cmd.Context(), id)
			if err != nil {
				return err
			}
			return o.render(cmd.OutOrStdout(), dto, func(w io.Writer) error {
				if err := writeBookTable(w, []appbook.BookDTO{*dto}); err != nil {
					return err
				}
				if dto.Explanation != "" {
					_, err := fmt.Fprintf(w, "\n%s\n", dto.Explanation)
					return err
				}
				return nil
			})
		},
	}
}

func newSetStockCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set-stock <id> <stock>",
		Short: "修改库存数量",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			stock, err := strconv.Atoi(args[1])
			if err != nil {
				return apperrors.New(apperrors.ErrCodeInvalidParams, fmt.Sprintf("无效的库存数量: %s", args[1]))
			}
			app, err := o.getApp(cmd.Context())
			if err != nil {
				return err
			}
			dto, err := app.UpdateStock.Execute(cmd.Context(), appbook.UpdateStockRequest{ID: id, Stock: stock})
			if err != nil {
				return err
			}
			return o.render(cmd.OutOrStdout(), dto, func(w io.Writer) error {
				ok(w, "《%s》库存已更新为 %d", dto.Name, dto.Stock)
				return nil
			})
		},
	}
}

func newAddCmd(o *rootOptions) *cobra.Command {
	var req appbook.RegisterBookRequest

	cmd := &cobra.Command{
		Use:   "add",
		Short: "登记新书（ID自动分配）",
		Example: `  stockctl add --name "Go语言实战" --author "William Kennedy" \
    --publisher "人民邮电出版社" --price 5900 --isbn 9787115401908 \
    --sale-date 2017-03-01 --stock 10`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := o.getApp(cmd.Context())
			if err != nil {
				return err
			}
			dto, err := app.RegisterBook.Execute(cmd.Context(), req)
			if err != nil {
				return err
			}
			return o.render(cmd.OutOrStdout(), dto, func(w io.Writer) error {
				ok(w, "已登记《%s》，ID=%d", dto.Name, dto.ID)
				return nil
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&req.Name, "name", "", "书名")
	f.StringVar(&req.Author, "author", "", "作者")
	f.StringVar(&req.Publisher, "publisher", "", "出版社")
	f.Int64Var(&req.Price, "price", 0, "价格")
	f.StringVar(&req.ISBNCode, "isbn", "", "ISBN号")
	f.StringVar(&req.SaleDate, "sale-date", "", "发售日（YYYY-MM-DD）")
	f.StringVar(&req.Explanation, "explanation", "", "图书说明")
	f.StringVar(&req.Image, "image", "", "封面图片路径")
	f.IntVar(&req.Stock, "stock", 0, "初始库存")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("sale-date")

	return cmd
}

func newNextIDCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "next-id",
		Short: "查看下一本图书将分配的ID",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := o.getApp(cmd.Context())
			if err != nil {
				return err
			}
			id, err := app.RegisterBook.NextID(cmd.Context())
			if err != nil {
				return err
			}
			v := struct {
				NextID uint `json:"next_id" yaml:"next_id"`
			}{id}
			return o.render(cmd.OutOrStdout(), v, func(w io.Writer) error {
				_, err := fmt.Fprintln(w, id)
				return err
			})
		},
	}
}

func newWatchCmd(o *rootOptions) *cobra.Command {
	var routingKeys []string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "订阅并打印图书事件（需要mq.enabled）",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !o.cfg.MQ.Enabled {
				return apperrors.New(apperrors.ErrCodeMQError, "未启用消息队列（mq.enabled=false）")
			}
			consumer, err := mq.NewConsumer(o.cfg.MQ.URL, o.cfg.MQ.Exchange, o.cfg.MQ.ExchangeType, "", routingKeys, o.logger)
			if err != nil {
				return err
			}
			defer consumer.Close()

			w := cmd.OutOrStdout()
			return consumer.Consume(cmd.Context(), func(routingKey string, body []byte) error {
				return o.printEvent(w, routingKey, body)
			})
		},
	}

	cmd.Flags().StringSliceVar(&routingKeys, "routing-key", []string{"book.#"}, "订阅的路由键模式")
	return cmd
}

// printEvent 打印一条事件，无法解析的消息丢弃
func (o *rootOptions) printEvent(w io.Writer, routingKey string, body []byte) error {
	var event book.Event
	if err := json.Unmarshal(body, &event); err != nil {
		fmt.Fprintln(w, color.YellowString("!"), "无法解析的消息:", routingKey)
		return nil
	}
	return o.render(w, event, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "%s  %-20s  id=%d  stock=%d  %s\n",
			event.OccurredAt.Local().Format(time.DateTime),
			color.CyanString(routingKey),
			event.BookID,
			event.Stock,
			event.Name,
		)
		return err
	})
}

func newVersionCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "打印版本号",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "stockctl %s\n", o.version)
		},
	}
}

func parseID(s string) (uint, error) {
	id, err := strconv.ParseUint(s, 10, 0)
	if err != nil {
		return 0, apperrors.New(apperrors.ErrCodeInvalidParams, fmt.Sprintf("无效的图书ID: %s", s))
	}
	return uint(id), nil
}
