// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

// Route pattern constants for chi router registration.
const (
	// RouteRoot is the root path.
	RouteRoot = "/"
	// RouteSuffixNew is the suffix for "new" routes.
	RouteSuffixNew = "/new"
	// RouteSuffixEdit is the suffix for edit routes.
	RouteSuffixEdit = "/edit"
	// RouteSuffixDelete is the suffix for delete routes.
	RouteSuffixDelete = "/delete"

	// RouteParamID is the ID parameter pattern.
	RouteParamID = "/{id}"

	// RouteLogin is the login route.
	RouteLogin = "/login"
	// RouteRegister is the registration route.
	RouteRegister = "/register"
	// RouteLogout is the logout route.
	RouteLogout = "/logout"
	// RouteAccount is the account route.
	RouteAccount = "/account"
	// RouteAbout is the about page route.
	RouteAbout = "/about"
	// RouteContact is the contact page route.
	RouteContact = "/contact"

	// RouteBlogs is the public blog route.
	RouteBlogs = "/blogs"
	// RouteCategories is the categories route.
	RouteCategories = "/categories"
	// RouteSeries is the series route.
	RouteSeries = "/series"

	// RoutePosts is the posts admin route.
	RoutePosts = "/posts"
	// RouteUsers is the users admin route.
	RouteUsers = "/users"
	// RouteUploadImage is the editor image upload route.
	RouteUploadImage = "/upload-image"
	// RouteUploadImageByURL is the editor fetch-by-URL upload route.
	RouteUploadImageByURL = "/upload-image-by-url"

	// RouteBlogsID is the public blog detail route pattern.
	RouteBlogsID = RouteBlogs + RouteParamID
	// RouteCategoriesID is the category detail route pattern.
	RouteCategoriesID = RouteCategories + RouteParamID
	// RouteSeriesID is the series detail route pattern.
	RouteSeriesID = RouteSeries + RouteParamID
	// RoutePostsID is the posts ID route pattern.
	RoutePostsID = RoutePosts + RouteParamID
	// RouteUsersID is the users ID route pattern.
	RouteUsersID = RouteUsers + RouteParamID
)

// Redirect targets.
const (
	redirectHome       = RouteRoot
	redirectLogin      = RouteLogin
	redirectRegister   = RouteRegister
	redirectAdmin      = "/admin"
	redirectAdminLogin = redirectAdmin + RouteLogin

	redirectAdminPosts         = redirectAdmin + RoutePosts
	redirectAdminPostsNew      = redirectAdminPosts + RouteSuffixNew
	redirectAdminCategories    = redirectAdmin + RouteCategories
	redirectAdminCategoriesNew = redirectAdminCategories + RouteSuffixNew
	redirectAdminSeries        = redirectAdmin + RouteSeries
	redirectAdminSeriesNew     = redirectAdminSeries + RouteSuffixNew
	redirectAdminUsers         = redirectAdmin + RouteUsers
	redirectAdminUsersNew      = redirectAdminUsers + RouteSuffixNew

	redirectAdminPostsID      = redirectAdminPosts + "/%d" + RouteSuffixEdit
	redirectAdminCategoriesID = redirectAdminCategories + "/%d" + RouteSuffixEdit
	redirectAdminSeriesID     = redirectAdminSeries + "/%d" + RouteSuffixEdit
	redirectAdminUsersID      = redirectAdminUsers + "/%d" + RouteSuffixEdit

	redirectBlogsID = RouteBlogs + "/%d"

	redirectAccount         = RouteAccount
	redirectAccountPosts    = redirectAccount + RoutePosts
	redirectAccountPostsNew = redirectAccountPosts + RouteSuffixNew
	redirectAccountPostsID  = redirectAccountPosts + "/%d" + RouteSuffixEdit
)
